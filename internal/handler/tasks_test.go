package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/service"
)

type mockTasks struct{ mock.Mock }

func (m *mockTasks) List(ctx context.Context, userID uint64) ([]model.Task, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockTasks) Create(ctx context.Context, userID uint64, req service.TaskRequest) (model.Task, error) {
	args := m.Called(ctx, userID, req)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *mockTasks) Get(ctx context.Context, userID, id uint64) (model.Task, error) {
	args := m.Called(ctx, userID, id)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *mockTasks) Update(ctx context.Context, userID, id uint64, req service.TaskRequest) (model.Task, error) {
	args := m.Called(ctx, userID, id, req)
	return args.Get(0).(model.Task), args.Error(1)
}

func (m *mockTasks) Delete(ctx context.Context, userID, id uint64) error {
	return m.Called(ctx, userID, id).Error(0)
}

// withParam wraps h so the :id path parameter is set.
func withParam(h echo.HandlerFunc, id string) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.SetParamNames("id")
		c.SetParamValues(id)
		return h(c)
	}
}

func TestTaskHandler_ListAndCreate(t *testing.T) {
	m := &mockTasks{}
	h := NewTaskHandler(m)
	caller := &service.Identity{User: ana}

	m.On("List", mock.Anything, ana.ID).Return([]model.Task{{ID: 2, UserID: 1, Title: "b"}, {ID: 1, UserID: 1, Title: "a"}}, nil)
	rec := serve(t, h.List, http.MethodGet, "/tasks", "", caller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"b"`)

	m.On("Create", mock.Anything, ana.ID, mock.AnythingOfType("service.TaskRequest")).
		Return(model.Task{ID: 3, UserID: 1, Title: "c", Status: model.TaskPending}, nil)
	rec = serve(t, h.Create, http.MethodPost, "/tasks", `{"title":"c"}`, caller)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
}

func TestTaskHandler_NotFound(t *testing.T) {
	m := &mockTasks{}
	h := NewTaskHandler(m)
	caller := &service.Identity{User: ana}

	m.On("Get", mock.Anything, ana.ID, uint64(9)).Return(model.Task{}, apperr.ErrTaskNotFound)

	rec := serve(t, withParam(h.Show, "9"), http.MethodGet, "/tasks/9", "", caller)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode(t, rec)["error"])

	rec = serve(t, withParam(h.Show, "abc"), http.MethodGet, "/tasks/abc", "", caller)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_UpdateDelete(t *testing.T) {
	m := &mockTasks{}
	h := NewTaskHandler(m)
	caller := &service.Identity{User: ana}
	done := model.TaskDone

	m.On("Update", mock.Anything, ana.ID, uint64(3), service.TaskRequest{Status: &done}).
		Return(model.Task{ID: 3, UserID: 1, Title: "c", Status: done}, nil)
	rec := serve(t, withParam(h.Update, "3"), http.MethodPut, "/tasks/3", `{"status":"done"}`, caller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", decode(t, rec)["status"])

	m.On("Delete", mock.Anything, ana.ID, uint64(3)).Return(nil)
	rec = serve(t, withParam(h.Delete, "3"), http.MethodDelete, "/tasks/3", "", caller)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task deleted successfully", decode(t, rec)["message"])
}

func TestTaskHandler_RequiresIdentity(t *testing.T) {
	h := NewTaskHandler(&mockTasks{})
	rec := serve(t, h.List, http.MethodGet, "/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
