package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/identity"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/repository"
	"github.com/yesid10/taskflow-api/internal/utils"
)

// ReconcileResult describes what Reconcile did to produce User.
type ReconcileResult struct {
	User    model.User
	Created bool
	Linked  bool
}

// AccountReconciler maps verified federated claims onto exactly one user
// row.
type AccountReconciler struct {
	users      UserStore
	bcryptCost int
	now        func() time.Time
	log        *slog.Logger
}

func NewAccountReconciler(users UserStore, bcryptCost int, log *slog.Logger) *AccountReconciler {
	return &AccountReconciler{users: users, bcryptCost: bcryptCost, now: time.Now, log: log}
}

// Reconcile looks the claims up by subject id, then by email. A match is
// updated with the provider owned fields; otherwise a new user is created
// with an unusable password. When a concurrent login wins the race on a
// unique key the whole lookup is retried once.
func (r *AccountReconciler) Reconcile(ctx context.Context, claims identity.Claims, provider string) (ReconcileResult, error) {
	res, err := r.reconcileOnce(ctx, claims, provider)
	if errors.Is(err, repository.ErrConflict) {
		r.log.Info("reconcile conflict, retrying", "provider", provider, "error", err)
		res, err = r.reconcileOnce(ctx, claims, provider)
	}
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return ReconcileResult{}, err
		}
		return ReconcileResult{}, apperr.ErrPersistence.Wrap(err)
	}
	return res, nil
}

func (r *AccountReconciler) reconcileOnce(ctx context.Context, claims identity.Claims, provider string) (ReconcileResult, error) {
	u, err := r.users.GetByGoogleID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		u, err = r.users.GetByEmail(ctx, claims.Email)
	}
	switch {
	case err == nil:
		return r.link(ctx, u, claims, provider)
	case errors.Is(err, repository.ErrUserNotFound):
		return r.create(ctx, claims, provider)
	default:
		return ReconcileResult{}, err
	}
}

// link never touches name, email or password hash.
func (r *AccountReconciler) link(ctx context.Context, u model.User, claims identity.Claims, provider string) (ReconcileResult, error) {
	wasLinked := u.GoogleID != nil && *u.GoogleID == claims.Subject
	now := r.now().UTC().Truncate(time.Second)

	sub := claims.Subject
	u.GoogleID = &sub
	u.GoogleAvatarURL = optional(claims.Picture)
	u.AuthProvider = provider
	u.EmailVerifiedAt = &now
	if err := r.users.UpdateFederated(ctx, &u); err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{User: u, Linked: !wasLinked}, nil
}

func (r *AccountReconciler) create(ctx context.Context, claims identity.Claims, provider string) (ReconcileResult, error) {
	hash, err := utils.UnusablePasswordHash(r.bcryptCost)
	if err != nil {
		return ReconcileResult{}, err
	}
	now := r.now().UTC().Truncate(time.Second)
	sub := claims.Subject
	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	u := model.User{
		Name:            name,
		Email:           claims.Email,
		PasswordHash:    hash,
		GoogleID:        &sub,
		GoogleAvatarURL: optional(claims.Picture),
		AuthProvider:    provider,
		EmailVerifiedAt: &now,
	}
	if err := r.users.Create(ctx, &u); err != nil {
		return ReconcileResult{}, err
	}
	return ReconcileResult{User: u, Created: true}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
