package service

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/repository"
)

// ProfileRequest is the payload of PUT /profile. Omitted fields keep their
// current value.
type ProfileRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (r ProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, validation.Length(1, 255), is.Email),
		validation.Field(&r.ProfileImageURL, validation.Length(0, 2048), is.URL),
	)
}

// ProfileService updates the user editable part of an account.
type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

// Update applies req to user and persists it. An empty profile image URL
// clears the image.
func (s *ProfileService) Update(ctx context.Context, user model.User, req ProfileRequest) (model.User, error) {
	if req.Name != nil {
		v := strings.TrimSpace(*req.Name)
		req.Name = &v
	}
	if req.Email != nil {
		v := repository.NormalizeEmail(*req.Email)
		req.Email = &v
	}
	if err := validationError(req.Validate()); err != nil {
		return model.User{}, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil && *req.Email != user.Email {
		other, err := s.users.GetByEmail(ctx, *req.Email)
		switch {
		case err == nil && other.ID != user.ID:
			return model.User{}, apperr.Validation(map[string]string{"email": MsgEmailTaken})
		case err != nil && !errors.Is(err, repository.ErrUserNotFound):
			return model.User{}, apperr.ErrPersistence.Wrap(err)
		}
		user.Email = *req.Email
	}
	if req.ProfileImageURL != nil {
		user.ProfileImageURL = optional(strings.TrimSpace(*req.ProfileImageURL))
	}

	if err := s.users.UpdateProfile(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, apperr.Validation(map[string]string{"email": MsgEmailTaken})
		}
		return model.User{}, apperr.ErrPersistence.Wrap(err)
	}
	return user, nil
}
