package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/yesid10/taskflow-api/internal/model"
)

// ErrUserNotFound is returned when no user row matches a lookup.
var ErrUserNotFound = errors.New("user not found")

const userColumns = "id, name, email, password_hash, google_id, google_avatar_url, profile_image_url, auth_provider, email_verified_at, created_at, updated_at"

// UserRepo reads and writes the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail trims and lower-cases an address. Every lookup and write
// goes through it so the unique key compares like for like.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and fills in its ID and timestamps. A duplicate email
// or google id yields ErrEmailExists / ErrGoogleIDExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	u.Email = NormalizeEmail(u.Email)
	if u.AuthProvider == "" {
		u.AuthProvider = model.ProviderLocal
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, google_id, google_avatar_url, profile_image_url, auth_provider, email_verified_at, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		u.Name, u.Email, u.PasswordHash, u.GoogleID, u.GoogleAvatarURL, u.ProfileImageURL, u.AuthProvider, u.EmailVerifiedAt, now, now)
	if err != nil {
		return translateDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt = now
	u.UpdatedAt = now
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email))
}

// GetByGoogleID fetches the user linked to a federated subject id.
func (r *UserRepo) GetByGoogleID(ctx context.Context, googleID string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE google_id=? LIMIT 1", googleID)
}

// UpdateFederated persists the identity-provider owned fields of u:
// google id, avatar, provider tag and email verification time. Name,
// email and password hash are left untouched.
func (r *UserRepo) UpdateFederated(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET google_id=?, google_avatar_url=?, auth_provider=?, email_verified_at=?, updated_at=? WHERE id=?`,
		u.GoogleID, u.GoogleAvatarURL, u.AuthProvider, u.EmailVerifiedAt, now, u.ID)
	if err != nil {
		return translateDuplicate(err)
	}
	if err := r.expectRow(ctx, res, u.ID); err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

// UpdateProfile persists the user editable fields of u: name, email and
// profile image.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	now := time.Now().UTC().Truncate(time.Second)
	u.Email = NormalizeEmail(u.Email)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET name=?, email=?, profile_image_url=?, updated_at=? WHERE id=?`,
		u.Name, u.Email, u.ProfileImageURL, now, u.ID)
	if err != nil {
		return translateDuplicate(err)
	}
	if err := r.expectRow(ctx, res, u.ID); err != nil {
		return err
	}
	u.UpdatedAt = now
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var (
		u             model.User
		googleID      sql.NullString
		googleAvatar  sql.NullString
		profileImage  sql.NullString
		emailVerified sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &googleID, &googleAvatar, &profileImage,
		&u.AuthProvider, &emailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.GoogleID = nullString(googleID)
	u.GoogleAvatarURL = nullString(googleAvatar)
	u.ProfileImageURL = nullString(profileImage)
	if emailVerified.Valid {
		t := emailVerified.Time
		u.EmailVerifiedAt = &t
	}
	return u, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// expectRow reports ErrUserNotFound when an UPDATE hit no row. Without
// CLIENT_FOUND_ROWS MySQL reports zero for a row whose values did not
// change, so a zero is confirmed with a lookup by id.
func (r *UserRepo) expectRow(ctx context.Context, res sql.Result, id uint64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id=?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	return err
}
