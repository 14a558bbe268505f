package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/middleware"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/service"
)

const requestTimeout = 5 * time.Second

// AuthService is the part of service.AuthService the handlers use.
type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.Token, error)
	LoginWithGoogle(ctx context.Context, assertion string) (service.GoogleLoginResult, error)
	Logout(ctx context.Context, id service.Identity)
	Refresh(ctx context.Context, raw string) (service.Token, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(a AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginReq struct {
	GoogleToken string `json:"google_token"`
}

type authResp struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
	Token   string     `json:"token"`
}

type messageResp struct {
	Message string `json:"message"`
}

// Register: create a local account and return a token immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.Register(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResp{
		Message: "User successfully registered",
		User:    res.User,
		Token:   res.Token.AccessToken,
	})
}

// Login: verify email and password and return a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tok, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tok)
}

// LoginGoogle: exchange a Google ID token for a bearer token, creating or
// linking the account as needed.
func (h *AuthHandler) LoginGoogle(c echo.Context) error {
	var req googleLoginReq
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Auth.LoginWithGoogle(ctx, req.GoogleToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResp{
		Message: "Successfully logged in with Google",
		User:    res.User,
		Token:   res.Token.AccessToken,
	})
}

// Me: return the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, id.User)
}

// Logout: invalidate the presented token.
func (h *AuthHandler) Logout(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	h.Auth.Logout(ctx, id)
	return c.JSON(http.StatusOK, messageResp{Message: "Successfully logged out"})
}

// Refresh: exchange the presented token for a new one.
func (h *AuthHandler) Refresh(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tok, err := h.Auth.Refresh(ctx, id.Token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tok)
}

// currentIdentity reads the identity JWTAuth attached to the request.
func currentIdentity(c echo.Context) (service.Identity, error) {
	id, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return service.Identity{}, apperr.ErrMissingToken
	}
	return id, nil
}

func invalidBody() error {
	return apperr.Validation(map[string]string{"body": "must be a valid JSON object"})
}
