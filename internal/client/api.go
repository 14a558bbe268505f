// Package client is a Go client for the task API together with the
// session store that tracks who is logged in.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
)

// API talks to the HTTP surface of the server. Every failure is returned as
// an *apperr.Error so callers branch on Kind and Code only.
type API struct {
	baseURL string
	http    *http.Client

	// OnUnauthorized, when set, is called with the token of any
	// authenticated request that came back 401.
	OnUnauthorized func(token string)
}

func NewAPI(baseURL string, hc *http.Client) *API {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthResponse is returned by register and Google login.
type AuthResponse struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
	Token   string     `json:"token"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// TaskInput is the body of task create and update calls.
type TaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (a *API) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, http.MethodPost, "/register", "", req, &out)
	return out, err
}

func (a *API) Login(ctx context.Context, email, password string) (TokenResponse, error) {
	var out TokenResponse
	err := a.do(ctx, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password}, &out)
	return out, err
}

func (a *API) LoginGoogle(ctx context.Context, googleToken string) (AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, http.MethodPost, "/login-google", "", map[string]string{"google_token": googleToken}, &out)
	return out, err
}

func (a *API) Me(ctx context.Context, token string) (model.User, error) {
	var out model.User
	err := a.do(ctx, http.MethodPost, "/me", token, nil, &out)
	return out, err
}

func (a *API) Logout(ctx context.Context, token string) error {
	return a.do(ctx, http.MethodPost, "/logout", token, nil, nil)
}

func (a *API) Refresh(ctx context.Context, token string) (TokenResponse, error) {
	var out TokenResponse
	err := a.do(ctx, http.MethodPost, "/refresh", token, nil, &out)
	return out, err
}

func (a *API) ListTasks(ctx context.Context, token string) ([]model.Task, error) {
	var out []model.Task
	err := a.do(ctx, http.MethodGet, "/tasks", token, nil, &out)
	return out, err
}

func (a *API) CreateTask(ctx context.Context, token string, in TaskInput) (model.Task, error) {
	var out model.Task
	err := a.do(ctx, http.MethodPost, "/tasks", token, in, &out)
	return out, err
}

func (a *API) UpdateTask(ctx context.Context, token string, id uint64, in TaskInput) (model.Task, error) {
	var out model.Task
	err := a.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), token, in, &out)
	return out, err
}

func (a *API) DeleteTask(ctx context.Context, token string, id uint64) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), token, nil, nil)
}

func (a *API) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.ErrUpstream.Wrap(err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return apperr.ErrUpstream.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return apperr.ErrUpstream.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp)
		if resp.StatusCode == http.StatusUnauthorized && token != "" && a.OnUnauthorized != nil {
			a.OnUnauthorized(token)
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.ErrUpstream.Wrap(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return nil
}

type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

// decodeError maps an error response onto the closed error taxonomy. The
// server's code is kept so errors.Is matches the server side sentinel.
func decodeError(resp *http.Response) *apperr.Error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	e := &apperr.Error{
		Kind:    kindForResponse(resp.StatusCode, body.Code),
		Code:    body.Code,
		Message: body.Error,
		Fields:  body.Details,
		Err:     fmt.Errorf("server responded %s", resp.Status),
	}
	if e.Code == "" {
		e.Code = fmt.Sprintf("http_%d", resp.StatusCode)
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

func kindForResponse(status int, code string) apperr.Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperr.KindValidation
	case status == http.StatusUnauthorized:
		switch code {
		case apperr.ErrInvalidCredentials.Code:
			return apperr.KindInvalidCredentials
		case apperr.ErrMalformedAssertion.Code:
			return apperr.KindMalformedAssertion
		}
		return apperr.KindUnauthenticated
	case status == http.StatusNotFound:
		return apperr.KindNotFound
	case code == apperr.ErrPersistence.Code:
		return apperr.KindPersistence
	}
	return apperr.KindUpstream
}
