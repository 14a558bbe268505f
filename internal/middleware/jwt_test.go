package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/service"
)

type stubValidator struct {
	tokens map[string]service.Identity
	err    error
	calls  int
}

func (s *stubValidator) Validate(_ context.Context, raw string) (service.Identity, error) {
	s.calls++
	if id, ok := s.tokens[raw]; ok {
		return id, nil
	}
	if s.err != nil {
		return service.Identity{}, s.err
	}
	return service.Identity{}, apperr.ErrTokenMalformed
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{header: "Bearer abc", want: "abc", ok: true},
		{header: "bearer abc", want: "abc", ok: true},
		{header: "  BEARER   abc  ", want: "abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer", ok: false},
		{header: "Bearer   ", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func runJWTAuth(t *testing.T, v TokenValidator, header string) (*service.Identity, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/me", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *service.Identity
	h := JWTAuth(v)(func(c echo.Context) error {
		id, ok := IdentityFrom(c.Request().Context())
		require.True(t, ok)
		seen = &id
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return seen, err
}

func TestJWTAuth_AttachesIdentity(t *testing.T) {
	v := &stubValidator{tokens: map[string]service.Identity{
		"good": {User: model.User{ID: 7, Email: "ana@x.com"}, TokenID: "jti"},
	}}

	id, err := runJWTAuth(t, v, "Bearer good")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint64(7), id.User.ID)
}

func TestJWTAuth_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		validator *stubValidator
		want      error
		validated bool
	}{
		{name: "missing header", header: "", validator: &stubValidator{}, want: apperr.ErrMissingToken},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", validator: &stubValidator{}, want: apperr.ErrMissingToken},
		{name: "malformed", header: "Bearer junk", validator: &stubValidator{}, want: apperr.ErrTokenMalformed, validated: true},
		{name: "expired", header: "Bearer old", validator: &stubValidator{err: apperr.ErrTokenExpired}, want: apperr.ErrTokenExpired, validated: true},
		{name: "user gone", header: "Bearer gone", validator: &stubValidator{err: apperr.ErrUserNotFound}, want: apperr.ErrUserNotFound, validated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := runJWTAuth(t, tt.validator, tt.header)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, http.StatusUnauthorized, apperr.KindOf(err).Status())
			assert.Nil(t, id)
			assert.Equal(t, tt.validated, tt.validator.calls > 0)
		})
	}
}

func TestIdentityFrom_Empty(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)
}
