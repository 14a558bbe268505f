package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/yesid10/taskflow-api/internal/config"
	"github.com/yesid10/taskflow-api/internal/identity"
	"github.com/yesid10/taskflow-api/internal/logger"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/queue"
	"github.com/yesid10/taskflow-api/internal/repository"
)

const testCost = bcrypt.MinCost

// memUserStore enforces the same unique keys as the users table.
type memUserStore struct {
	mu           sync.Mutex
	nextID       uint64
	rows         map[uint64]model.User
	beforeCreate func()
	failWith     error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{rows: make(map[uint64]model.User)}
}

func (s *memUserStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *memUserStore) conflict(u *model.User) error {
	for id, row := range s.rows {
		if id == u.ID {
			continue
		}
		if row.Email == u.Email {
			return repository.ErrEmailExists
		}
		if u.HasGoogleID() && row.HasGoogleID() && *row.GoogleID == *u.GoogleID {
			return repository.ErrGoogleIDExists
		}
	}
	return nil
}

func (s *memUserStore) Create(_ context.Context, u *model.User) error {
	if hook := s.beforeCreate; hook != nil {
		s.beforeCreate = nil
		hook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	u.Email = repository.NormalizeEmail(u.Email)
	if err := s.conflict(u); err != nil {
		return err
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	s.rows[u.ID] = *u
	return nil
}

func (s *memUserStore) find(match func(model.User) bool) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return model.User{}, s.failWith
	}
	for _, row := range s.rows {
		if match(row) {
			return row, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	return s.find(func(u model.User) bool { return u.ID == id })
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	email = repository.NormalizeEmail(email)
	return s.find(func(u model.User) bool { return u.Email == email })
}

func (s *memUserStore) GetByGoogleID(_ context.Context, googleID string) (model.User, error) {
	return s.find(func(u model.User) bool { return u.HasGoogleID() && *u.GoogleID == googleID })
}

func (s *memUserStore) UpdateFederated(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	if err := s.conflict(u); err != nil {
		return err
	}
	row.GoogleID = u.GoogleID
	row.GoogleAvatarURL = u.GoogleAvatarURL
	row.AuthProvider = u.AuthProvider
	row.EmailVerifiedAt = u.EmailVerifiedAt
	row.UpdatedAt = time.Now().UTC()
	s.rows[u.ID] = row
	return nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[u.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Email = repository.NormalizeEmail(u.Email)
	if err := s.conflict(u); err != nil {
		return err
	}
	row.Name, row.Email, row.ProfileImageURL = u.Name, u.Email, u.ProfileImageURL
	s.rows[u.ID] = row
	return nil
}

// seed inserts a local account with a real password hash.
func (s *memUserStore) seed(name, email, password string) model.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), testCost)
	if err != nil {
		panic(err)
	}
	u := model.User{Name: name, Email: email, PasswordHash: string(hash), AuthProvider: model.ProviderLocal}
	if err := s.Create(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

type memDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemDenylist() *memDenylist { return &memDenylist{revoked: make(map[string]time.Time)} }

func (d *memDenylist) Revoke(_ context.Context, jti string, exp time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.revoked[jti] = exp
	return nil
}

func (d *memDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	_, ok := d.revoked[jti]
	return ok, nil
}

type memTaskStore struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Task
}

func newMemTaskStore() *memTaskStore { return &memTaskStore{rows: make(map[uint64]model.Task)} }

func (s *memTaskStore) ListByUser(_ context.Context, userID uint64) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0)
	for _, t := range s.rows {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *memTaskStore) Create(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	s.rows[t.ID] = *t
	return nil
}

func (s *memTaskStore) GetByIDAndUser(_ context.Context, id, userID uint64) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[id]
	if !ok || t.UserID != userID {
		return model.Task{}, repository.ErrTaskNotFound
	}
	return t, nil
}

func (s *memTaskStore) Update(_ context.Context, t *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[t.ID]
	if !ok || row.UserID != t.UserID {
		return repository.ErrTaskNotFound
	}
	s.rows[t.ID] = *t
	return nil
}

func (s *memTaskStore) Delete(_ context.Context, id, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.UserID != userID {
		return repository.ErrTaskNotFound
	}
	delete(s.rows, id)
	return nil
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, assertion string) (identity.Claims, error) {
	args := m.Called(ctx, assertion)
	return args.Get(0).(identity.Claims), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

var testJWT = config.JWT{
	Secret: "test-secret",
	TTL:    time.Hour,
	Leeway: 0,
	Issuer: "taskflow-api",
}

type authFixture struct {
	users    *memUserStore
	denylist *memDenylist
	tokens   *TokenService
	google   *mockVerifier
	auth     *AuthService
}

func newAuthFixture() authFixture {
	log := logger.Nop().Logger
	users := newMemUserStore()
	denylist := newMemDenylist()
	tokens := NewTokenService(testJWT, users, denylist, log)
	creds, err := NewCredentialVerifier(users, testCost)
	if err != nil {
		panic(err)
	}
	google := &mockVerifier{}
	auth := NewAuthService(users, creds, NewAccountReconciler(users, testCost, log), tokens, google, nil, testCost, log)
	return authFixture{users: users, denylist: denylist, tokens: tokens, google: google, auth: auth}
}
