package model

import "time"

// Auth providers recorded on a user row.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents an application user record as stored in the `users`
// table. The JSON tags define the public shape returned by the API; the
// password hash never leaves the server.
//
// Fields:
//
//	ID              – primary key identifier of the user.
//	Name            – display name; never changed by federated login.
//	Email           – unique, normalized (trimmed, lower case) address.
//	PasswordHash    – bcrypt hash; federated accounts carry an unusable one.
//	GoogleID        – federated subject id, unique when present.
//	GoogleAvatarURL – avatar reported by the identity provider.
//	ProfileImageURL – avatar chosen by the user on the profile page.
//	AuthProvider    – provider of the last successful login path (local|google).
//	EmailVerifiedAt – set when an identity provider vouched for the email.
type User struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	GoogleID        *string    `json:"google_id"`
	GoogleAvatarURL *string    `json:"google_avatar_url"`
	ProfileImageURL *string    `json:"profile_image_url"`
	AuthProvider    string     `json:"auth_provider"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasGoogleID reports whether the user is linked to a federated identity.
func (u User) HasGoogleID() bool {
	return u.GoogleID != nil && *u.GoogleID != ""
}
