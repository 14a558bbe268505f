// Package service holds the authentication core and the task use cases.
// Services depend on small interfaces so handlers and tests can supply any
// implementation; production wiring passes the repository types.
package service

import (
	"context"
	"time"

	"github.com/yesid10/taskflow-api/internal/identity"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/queue"
)

// UserStore persists users. Implementations report missing rows with
// repository.ErrUserNotFound and unique key violations with errors that
// wrap repository.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (model.User, error)
	UpdateFederated(ctx context.Context, u *model.User) error
	UpdateProfile(ctx context.Context, u *model.User) error
}

// TaskStore persists tasks scoped by owner.
type TaskStore interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Task, error)
	Create(ctx context.Context, t *model.Task) error
	GetByIDAndUser(ctx context.Context, id, userID uint64) (model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id, userID uint64) error
}

// Denylist records revoked token ids until they expire.
type Denylist interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// IdentityVerifier turns a federated assertion into verified claims.
type IdentityVerifier interface {
	Verify(ctx context.Context, assertion string) (identity.Claims, error)
}

// EventPublisher emits auth events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// Identity is an authenticated principal resolved from a bearer token.
type Identity struct {
	User      model.User
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// Token is a freshly minted bearer token in the shape the API returns.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"-"`
}
