package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/service"
)

// TaskService is the part of service.TaskService the handler uses.
type TaskService interface {
	List(ctx context.Context, userID uint64) ([]model.Task, error)
	Create(ctx context.Context, userID uint64, req service.TaskRequest) (model.Task, error)
	Get(ctx context.Context, userID, id uint64) (model.Task, error)
	Update(ctx context.Context, userID, id uint64, req service.TaskRequest) (model.Task, error)
	Delete(ctx context.Context, userID, id uint64) error
}

// TaskHandler serves the caller's own tasks. Tasks of other users are
// reported as not found.
type TaskHandler struct {
	Tasks TaskService
}

func NewTaskHandler(t TaskService) *TaskHandler {
	return &TaskHandler{Tasks: t}
}

func (h *TaskHandler) List(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	tasks, err := h.Tasks.List(ctx, id.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Create(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req service.TaskRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Tasks.Create(ctx, id.User.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TaskHandler) Show(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Tasks.Get(ctx, id.User.ID, taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Update(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	var req service.TaskRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	t, err := h.Tasks.Update(ctx, id.User.ID, taskID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TaskHandler) Delete(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Tasks.Delete(ctx, id.User.ID, taskID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResp{Message: "Task deleted successfully"})
}

// taskIDParam parses :id. Non-numeric ids cannot exist, so they are
// reported as not found rather than as a validation failure.
func taskIDParam(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.ErrTaskNotFound
	}
	return id, nil
}
