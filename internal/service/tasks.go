package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/repository"
)

// TaskRequest is the payload of POST /tasks and PUT /tasks/:id. On update
// omitted fields keep their current value.
type TaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (r TaskRequest) validate(create bool) error {
	titleRules := []validation.Rule{validation.NilOrNotEmpty, validation.Length(1, 255)}
	if create {
		titleRules = append([]validation.Rule{validation.Required}, titleRules...)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, titleRules...),
		validation.Field(&r.Description, validation.Length(0, 65535)),
		validation.Field(&r.Status, validation.NilOrNotEmpty, validation.In(model.TaskPending, model.TaskInProgress, model.TaskDone)),
	)
}

// TaskService implements task CRUD for the authenticated user.
type TaskService struct {
	tasks TaskStore
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) List(ctx context.Context, userID uint64) ([]model.Task, error) {
	out, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.ErrPersistence.Wrap(err)
	}
	return out, nil
}

func (s *TaskService) Create(ctx context.Context, userID uint64, req TaskRequest) (model.Task, error) {
	req = req.trimmed()
	if err := validationError(req.validate(true)); err != nil {
		return model.Task{}, err
	}
	t := model.Task{UserID: userID, Title: *req.Title, Description: req.Description, Status: model.TaskPending}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if err := s.tasks.Create(ctx, &t); err != nil {
		return model.Task{}, apperr.ErrPersistence.Wrap(err)
	}
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id uint64) (model.Task, error) {
	t, err := s.tasks.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return model.Task{}, taskError(err)
	}
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, userID, id uint64, req TaskRequest) (model.Task, error) {
	req = req.trimmed()
	if err := validationError(req.validate(false)); err != nil {
		return model.Task{}, err
	}
	t, err := s.tasks.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return model.Task{}, taskError(err)
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = optional(*req.Description)
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if err := s.tasks.Update(ctx, &t); err != nil {
		return model.Task{}, taskError(err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id uint64) error {
	if err := s.tasks.Delete(ctx, id, userID); err != nil {
		return taskError(err)
	}
	return nil
}

func (r TaskRequest) trimmed() TaskRequest {
	if r.Title != nil {
		v := strings.TrimSpace(*r.Title)
		r.Title = &v
	}
	return r
}

func taskError(err error) error {
	if errors.Is(err, repository.ErrTaskNotFound) {
		return apperr.ErrTaskNotFound
	}
	return apperr.ErrPersistence.Wrap(err)
}
