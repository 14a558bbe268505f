package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("secret")

func TestAccessToken_Roundtrip(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken(testSecret, "taskflow", 42, time.Hour, now)
	require.NoError(t, err)
	require.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, now.Add(time.Hour), tok.Exp, time.Second)

	claims, err := ParseAccessToken(testSecret, tok.Token, "taskflow", 0, nil)
	require.NoError(t, err)

	uid, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestParseAccessToken_Expired(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	tok, err := NewAccessToken(testSecret, "taskflow", 1, time.Hour, issued)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token, "taskflow", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseAccessToken_LeewayAcceptsSmallSkew(t *testing.T) {
	issued := time.Now().Add(-time.Hour - 5*time.Second)
	tok, err := NewAccessToken(testSecret, "taskflow", 1, time.Hour, issued)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, tok.Token, "taskflow", 30*time.Second, nil)
	require.NoError(t, err)
}

func TestParseAccessToken_Rejections(t *testing.T) {
	tok, err := NewAccessToken(testSecret, "taskflow", 1, time.Hour, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret []byte
		raw    string
		issuer string
	}{
		{name: "wrong secret", secret: []byte("other"), raw: tok.Token, issuer: "taskflow"},
		{name: "wrong issuer", secret: testSecret, raw: tok.Token, issuer: "someone-else"},
		{name: "garbage", secret: testSecret, raw: "not.a.jwt", issuer: "taskflow"},
		{name: "two segments", secret: testSecret, raw: "abc.def", issuer: "taskflow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.secret, tt.raw, tt.issuer, 0, nil)
			require.Error(t, err)
			assert.NotErrorIs(t, err, jwt.ErrTokenExpired)
		})
	}
}

func TestParseAccessToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := AccessClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "taskflow",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(testSecret, raw, "taskflow", 0, nil)
	require.Error(t, err)
}

func TestAccessClaims_UserID(t *testing.T) {
	_, err := (&AccessClaims{}).UserID()
	assert.Error(t, err)

	_, err = (&AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}).UserID()
	assert.Error(t, err)
}
