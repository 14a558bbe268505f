package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/config"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/repository"
	"github.com/yesid10/taskflow-api/internal/utils"
)

const tokenTypeBearer = "bearer"

// TokenService mints and validates the API's bearer tokens. It is the
// only holder of the signing secret.
type TokenService struct {
	secret   []byte
	issuer   string
	ttl      time.Duration
	leeway   time.Duration
	users    UserStore
	denylist Denylist
	now      func() time.Time
	log      *slog.Logger
}

func NewTokenService(cfg config.JWT, users UserStore, denylist Denylist, log *slog.Logger) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		ttl:      cfg.TTL,
		leeway:   cfg.Leeway,
		users:    users,
		denylist: denylist,
		now:      time.Now,
		log:      log,
	}
}

// Issue signs a token for user.
func (s *TokenService) Issue(user model.User) (Token, error) {
	if user.ID == 0 {
		return Token{}, errors.New("cannot issue a token for an unsaved user")
	}
	at, err := utils.NewAccessToken(s.secret, s.issuer, user.ID, s.ttl, s.now())
	if err != nil {
		return Token{}, err
	}
	return Token{
		AccessToken: at.Token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.ttl / time.Second),
		ExpiresAt:   at.Exp,
	}, nil
}

// Validate resolves raw to the identity it was issued for. Failures are
// apperr.ErrMissingToken, ErrTokenExpired, ErrTokenMalformed,
// ErrTokenRevoked or ErrUserNotFound; storage failures surface as
// ErrPersistence.
func (s *TokenService) Validate(ctx context.Context, raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, apperr.ErrMissingToken
	}
	claims, err := utils.ParseAccessToken(s.secret, raw, s.issuer, s.leeway, s.now)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, apperr.ErrTokenExpired.Wrap(err)
		}
		return Identity{}, apperr.ErrTokenMalformed.Wrap(err)
	}
	userID, err := claims.UserID()
	if err != nil || claims.ID == "" {
		return Identity{}, apperr.ErrTokenMalformed.Wrap(err)
	}

	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		// the denylist is an optimization over token expiry, not a gate
		s.log.Warn("denylist lookup failed", "error", err)
	} else if revoked {
		return Identity{}, apperr.ErrTokenRevoked
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Identity{}, apperr.ErrUserNotFound
		}
		return Identity{}, apperr.ErrPersistence.Wrap(err)
	}
	return Identity{
		User:      u,
		Token:     raw,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Refresh exchanges a currently valid token for a new one. The old token
// is invalidated on a best effort basis.
func (s *TokenService) Refresh(ctx context.Context, raw string) (Token, error) {
	id, err := s.Validate(ctx, raw)
	if err != nil {
		return Token{}, err
	}
	tok, err := s.Issue(id.User)
	if err != nil {
		return Token{}, err
	}
	if err := s.Invalidate(ctx, id); err != nil {
		s.log.Warn("failed to invalidate refreshed token", "user_id", id.User.ID, "error", err)
	}
	return tok, nil
}

// Invalidate adds the token behind id to the denylist until it expires.
func (s *TokenService) Invalidate(ctx context.Context, id Identity) error {
	if err := s.denylist.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return apperr.ErrPersistence.Wrap(err)
	}
	return nil
}
