package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/apperr"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ErrorHandler renders errors returned by handlers and middleware. apperr
// errors map to their kind's status; echo.HTTPError keeps its own status;
// anything else is an opaque 500 whose cause is only logged.
func ErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error("failed to write error response", "error", err)
		}
	}
}

func renderError(err error) (int, errorBody) {
	if e, ok := apperr.As(err); ok {
		return e.Kind.Status(), errorBody{Error: e.Message, Code: e.Code, Details: e.Fields}
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		return he.Code, errorBody{Error: msg}
	}
	return http.StatusInternalServerError, errorBody{Error: "Internal server error"}
}
