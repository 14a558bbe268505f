package service

import (
	"context"
	"errors"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/repository"
	"github.com/yesid10/taskflow-api/internal/utils"
)

// CredentialVerifier checks an email and password pair against the stored
// bcrypt hash.
type CredentialVerifier struct {
	users     UserStore
	dummyHash string
}

// NewCredentialVerifier prepares a verifier. The dummy hash is compared
// when an email is unknown so both failure paths cost one bcrypt run.
func NewCredentialVerifier(users UserStore, bcryptCost int) (*CredentialVerifier, error) {
	dummy, err := utils.UnusablePasswordHash(bcryptCost)
	if err != nil {
		return nil, err
	}
	return &CredentialVerifier{users: users, dummyHash: dummy}, nil
}

// Verify returns the user owning email when password matches. Unknown
// emails, accounts without a usable hash and wrong passwords all yield
// apperr.ErrInvalidCredentials.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (model.User, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, apperr.ErrInvalidCredentials
	}

	u, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.VerifyPassword(v.dummyHash, password)
			return model.User{}, apperr.ErrInvalidCredentials
		}
		return model.User{}, apperr.ErrPersistence.Wrap(err)
	}
	if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, apperr.ErrInvalidCredentials
	}
	return u, nil
}
