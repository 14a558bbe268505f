package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// TokenRepo is the access token denylist. Entries are keyed by token id
// (jti) and expire together with the token they revoke, so the set never
// grows beyond the tokens that are still otherwise valid.
//
// A nil client turns both operations into no-ops; the API then behaves as
// a pure stateless bearer scheme.
type TokenRepo struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenRepo(rdb *redis.Client) *TokenRepo {
	return &TokenRepo{rdb: rdb, now: time.Now}
}

// Revoke records jti as invalid until exp.
func (r *TokenRepo) Revoke(ctx context.Context, jti string, exp time.Time) error {
	if r == nil || r.rdb == nil || jti == "" {
		return nil
	}
	ttl := exp.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	// round up so the entry never disappears before the token does
	ttl = ttl.Truncate(time.Second) + time.Second
	return r.rdb.SetEx(ctx, revokedKeyPrefix+jti, 1, ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (r *TokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
