package client

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
)

// loadTimeout bounds a shared Me lookup. It runs detached from the callers'
// contexts so one caller giving up does not fail the others.
const loadTimeout = 15 * time.Second

// Status is the state of a Store.
type Status int

const (
	// StatusLoading means the stored token has not been resolved yet.
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	}
	return "loading"
}

// ErrSessionChanged is returned by Load when the session was replaced
// (login, logout or a 401) while the lookup was in flight. The fetched
// user is discarded.
var ErrSessionChanged = errors.New("session changed while loading")

// SessionAPI is the part of API the store needs.
type SessionAPI interface {
	Me(ctx context.Context, token string) (model.User, error)
	Logout(ctx context.Context, token string) error
}

// Store tracks the client's session. Each login, logout or forced clear
// bumps an epoch; results of lookups started under an older epoch are
// dropped, so a slow /me can never resurrect a session that was ended.
type Store struct {
	api     SessionAPI
	storage Storage
	log     *slog.Logger

	mu     sync.RWMutex
	status Status
	token  string
	user   *model.User
	epoch  uint64

	loads singleflight.Group
}

// NewStore returns a store in the loading state. Call Init to resolve it.
func NewStore(api SessionAPI, storage Storage, log *slog.Logger) *Store {
	return &Store{api: api, storage: storage, log: log, status: StatusLoading}
}

// Init reads the stored token and resolves it to a user. Without a stored
// token the store becomes anonymous. A token the server rejects is cleared.
func (s *Store) Init(ctx context.Context) error {
	sess, err := s.storage.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.reset()
		s.mu.Unlock()
		if errors.Is(err, ErrNoSession) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	s.token = sess.Token
	s.user = sess.User
	s.status = StatusLoading
	s.mu.Unlock()

	_, err = s.Load(ctx)
	return err
}

// Load resolves the current token with the server. Concurrent calls share
// one request. On failure the session is cleared from memory and storage.
func (s *Store) Load(ctx context.Context) (model.User, error) {
	s.mu.Lock()
	token, epoch := s.token, s.epoch
	if token == "" {
		s.reset()
		s.mu.Unlock()
		return model.User{}, apperr.ErrMissingToken
	}
	s.status = StatusLoading
	s.mu.Unlock()

	ch := s.loads.DoChan(strconv.FormatUint(epoch, 10), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.api.Me(lctx, token)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		// the lookup keeps going for the other callers
		return model.User{}, ctx.Err()
	}
	v, err := res.Val, res.Err
	sctx := context.WithoutCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return model.User{}, ErrSessionChanged
	}
	if err != nil {
		if cerr := s.clearLocked(sctx); cerr != nil {
			s.log.Warn("failed to clear stored session", "error", cerr)
		}
		return model.User{}, err
	}
	u := v.(model.User)
	s.user = &u
	s.status = StatusAuthenticated
	if err := s.storage.Save(sctx, Session{Token: token, User: &u}); err != nil {
		s.log.Warn("failed to persist session user", "error", err)
	}
	return u, nil
}

// Login stores token and user durably and marks the session authenticated
// without a round trip.
func (s *Store) Login(ctx context.Context, token string, user model.User) error {
	if token == "" {
		return apperr.ErrMissingToken
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.storage.Save(ctx, Session{Token: token, User: &user}); err != nil {
		return err
	}
	s.epoch++
	s.token = token
	s.user = &user
	s.status = StatusAuthenticated
	return nil
}

// Logout ends the session locally right away, then asks the server to
// invalidate the token. The server call is best effort.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	err := s.clearLocked(ctx)
	s.mu.Unlock()

	if token != "" {
		if serr := s.api.Logout(ctx, token); serr != nil {
			s.log.Info("server logout failed", "error", serr)
		}
	}
	return err
}

// HandleUnauthorized clears the session when token is still the current
// one. It is meant to be installed as API.OnUnauthorized.
func (s *Store) HandleUnauthorized(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || token != s.token {
		return
	}
	if err := s.clearLocked(context.Background()); err != nil {
		s.log.Warn("failed to clear rejected session", "error", err)
	}
}

// CurrentUser returns the authenticated user.
func (s *Store) CurrentUser() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != StatusAuthenticated || s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Token returns the current bearer token, if any.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether the store holds a token, including while
// that token is still being resolved to a user.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Store) Loading() bool { return s.Status() == StatusLoading }

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Close releases the storage.
func (s *Store) Close() error { return s.storage.Close() }

// clearLocked ends the session in memory and in storage. s.mu must be held.
func (s *Store) clearLocked(ctx context.Context) error {
	s.reset()
	return s.storage.Clear(ctx)
}

// reset ends the in-memory session. s.mu must be held.
func (s *Store) reset() {
	s.epoch++
	s.token = ""
	s.user = nil
	s.status = StatusAnonymous
}
