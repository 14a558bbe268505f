package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/service"
)

// ProfileService is the part of service.ProfileService the handler uses.
type ProfileService interface {
	Update(ctx context.Context, user model.User, req service.ProfileRequest) (model.User, error)
}

type ProfileHandler struct {
	Profiles ProfileService
}

func NewProfileHandler(p ProfileService) *ProfileHandler {
	return &ProfileHandler{Profiles: p}
}

type profileResp struct {
	Message string     `json:"message"`
	User    model.User `json:"user"`
}

// Update: change name, email or profile image of the caller.
func (h *ProfileHandler) Update(c echo.Context) error {
	id, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req service.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	u, err := h.Profiles.Update(ctx, id.User, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResp{Message: "Profile updated successfully", User: u})
}
