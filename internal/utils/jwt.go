package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessToken is a signed JWT together with the values the server needs to
// refer to it later: its id (jti) for the denylist and its expiry.
type AccessToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// AccessClaims are the claims carried by access tokens. Subject holds the
// decimal user id.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// UserID decodes the subject claim.
func (c *AccessClaims) UserID() (uint64, error) {
	if c.Subject == "" {
		return 0, errors.New("missing subject")
	}
	return strconv.ParseUint(c.Subject, 10, 64)
}

// NewAccessToken builds and signs an HS256 JWT for a user. The token
// includes sub, jti, iss, iat, nbf and exp.
func NewAccessToken(secret []byte, issuer string, userID uint64, ttl time.Duration, now time.Time) (AccessToken, error) {
	now = now.UTC()
	exp := now.Add(ttl)
	jti := uuid.NewString()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        jti,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm, issuer and time based
// claims of raw. Errors are those of the jwt package (jwt.ErrTokenExpired,
// jwt.ErrTokenMalformed, ...), left for the caller to classify.
func ParseAccessToken(secret []byte, raw, issuer string, leeway time.Duration, now func() time.Time) (*AccessClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if now != nil {
		opts = append(opts, jwt.WithTimeFunc(now))
	}

	claims := &AccessClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
