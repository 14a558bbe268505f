package middleware

// identity.go carries the authenticated principal through the request
// context. Handlers read it with IdentityFrom instead of any process-wide
// accessor, so every request sees only its own caller.

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/service"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity attached by JWTAuth.
func IdentityFrom(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(service.Identity)
	return id, ok
}

// userID returns the caller's id for log lines, or "guest".
func userID(c echo.Context) any {
	if id, ok := IdentityFrom(c.Request().Context()); ok {
		return id.User.ID
	}
	return "guest"
}
