package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/handler"
	"github.com/yesid10/taskflow-api/internal/logger"
	"github.com/yesid10/taskflow-api/internal/service"
)

type rejectAll struct{}

func (rejectAll) Validate(context.Context, string) (service.Identity, error) {
	return service.Identity{}, apperr.ErrTokenExpired
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler(logger.Nop().Logger)

	auth := handler.NewAuthHandler(nil)
	RegisterRoutes(e, handler.NewHealthHandler(nil))
	RegisterAuth(e, auth, handler.NewProfileHandler(nil), rejectAll{})
	RegisterTasks(e, handler.NewTaskHandler(nil), rejectAll{})

	routes := []struct{ method, path string }{
		{http.MethodPost, "/me"},
		{http.MethodPost, "/logout"},
		{http.MethodPost, "/refresh"},
		{http.MethodPut, "/profile"},
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/1"},
		{http.MethodPut, "/tasks/1"},
		{http.MethodDelete, "/tasks/1"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			req := httptest.NewRequest(r.method, r.path, nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "token_missing")

			req = httptest.NewRequest(r.method, r.path, nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer expired")
			rec = httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "token_expired")
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
