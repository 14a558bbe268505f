package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesid10/taskflow-api/internal/apperr"
)

func strPtr(s string) *string { return &s }

func TestProfileService_Update(t *testing.T) {
	users := newMemUserStore()
	ana := users.seed("Ana", "ana@x.com", "Secret1")
	svc := NewProfileService(users)

	got, err := svc.Update(context.Background(), ana, ProfileRequest{
		Name:            strPtr("  Ana Maria "),
		ProfileImageURL: strPtr("https://cdn.example.com/ana.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.Equal(t, "ana@x.com", got.Email)
	require.NotNil(t, got.ProfileImageURL)

	stored, err := users.GetByID(context.Background(), ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)

	cleared, err := svc.Update(context.Background(), got, ProfileRequest{ProfileImageURL: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, cleared.ProfileImageURL)
}

func TestProfileService_UpdateEmailTaken(t *testing.T) {
	users := newMemUserStore()
	ana := users.seed("Ana", "ana@x.com", "Secret1")
	users.seed("Bob", "bob@x.com", "Secret1")
	svc := NewProfileService(users)

	_, err := svc.Update(context.Background(), ana, ProfileRequest{Email: strPtr("BOB@x.com")})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, MsgEmailTaken, e.Fields["email"])
}

func TestProfileService_UpdateValidation(t *testing.T) {
	users := newMemUserStore()
	ana := users.seed("Ana", "ana@x.com", "Secret1")
	svc := NewProfileService(users)

	_, err := svc.Update(context.Background(), ana, ProfileRequest{Name: strPtr(" "), Email: strPtr("nope")})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Contains(t, e.Fields, "name")
	assert.Contains(t, e.Fields, "email")
}
