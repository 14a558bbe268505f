package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/service"
)

// TokenValidator resolves a raw bearer token to an identity.
type TokenValidator interface {
	Validate(ctx context.Context, raw string) (service.Identity, error)
}

// JWTAuth returns an Echo middleware that requires a valid Bearer token.
// The resolved identity is stored on the request context where handlers
// read it with IdentityFrom. Every failure is returned as an apperr error
// of kind Unauthenticated and rendered as 401 by the error handler.
func JWTAuth(v TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return apperr.ErrMissingToken
			}

			req := c.Request()
			id, err := v.Validate(req.Context(), raw)
			if err != nil {
				return err
			}

			// attach the identity to the request itself so it also reaches
			// anything that only sees *http.Request
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
