// Package identity verifies identity assertions issued by third-party
// providers. A verified assertion is reduced to Claims, the only shape the
// rest of the application trusts.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/config"
)

// errKeysUnavailable marks an assertion that could not be checked because
// Google's key set could not be refreshed.
var errKeysUnavailable = errors.New("google signing keys unavailable")

// Claims is the verified subset of an identity assertion.
type Claims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// googleClaims mirrors the payload of a Google ID token. email_verified is
// a boolean in ID tokens but has been observed as the string "true" in
// tokens minted by older libraries, so it is decoded loosely.
type googleClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (c googleClaims) emailVerified() (verified, present bool) {
	switch v := c.EmailVerified.(type) {
	case bool:
		return v, true
	case string:
		return strings.EqualFold(v, "true"), true
	}
	return false, false
}

// GoogleVerifier checks Google ID tokens against Google's published key
// set. It never trusts an unverified payload.
type GoogleVerifier struct {
	clientID string
	issuers  []string
	leeway   time.Duration
	keyfunc  jwt.Keyfunc

	// set while the last JWKS refresh failed
	refreshFailing atomic.Bool
	jwks     *keyfunc.JWKS
	now      func() time.Time
}

// NewGoogleVerifier downloads the JWKS at cfg.JWKSURL and keeps it fresh in
// the background. Unknown key ids trigger a rate limited refresh, which
// covers Google's key rotation.
func NewGoogleVerifier(cfg config.Google, leeway time.Duration, log *slog.Logger) (*GoogleVerifier, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is not configured")
	}
	v := NewGoogleVerifierWithKeyfunc(cfg.ClientID, cfg.Issuers, leeway, nil)
	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			v.refreshFailing.Store(true)
			log.Warn("failed to refresh google JWKS", "error", err)
		},
		ResponseExtractor: v.extractKeys,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get google JWKS: %w", err)
	}
	v.keyfunc = v.guardKeyfunc(jwks.Keyfunc)
	v.jwks = jwks
	return v, nil
}

// NewGoogleVerifierWithKeyfunc builds a verifier around an explicit key
// source.
func NewGoogleVerifierWithKeyfunc(clientID string, issuers []string, leeway time.Duration, kf jwt.Keyfunc) *GoogleVerifier {
	v := &GoogleVerifier{
		clientID: clientID,
		issuers:  issuers,
		leeway:   leeway,
		now:      time.Now,
	}
	if kf != nil {
		v.keyfunc = v.guardKeyfunc(kf)
	}
	return v
}

// extractKeys reads a JWKS refresh response and records that the key set
// is reachable again.
func (v *GoogleVerifier) extractKeys(ctx context.Context, resp *http.Response) (json.RawMessage, error) {
	raw, err := keyfunc.ResponseExtractorStatusOK(ctx, resp)
	if err == nil {
		v.refreshFailing.Store(false)
	}
	return raw, err
}

// guardKeyfunc reports an unknown key id as errKeysUnavailable while the
// key set cannot be refreshed. Otherwise the key id is simply not Google's.
func (v *GoogleVerifier) guardKeyfunc(kf jwt.Keyfunc) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		key, err := kf(t)
		if errors.Is(err, keyfunc.ErrKIDNotFound) && v.refreshFailing.Load() {
			return nil, fmt.Errorf("%w: %w", errKeysUnavailable, err)
		}
		return key, err
	}
}

// Close stops the background key refresh.
func (v *GoogleVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Verify checks the structure, signature, audience, issuer and expiry of
// assertion and returns its claims. An assertion that cannot be trusted is
// reported as apperr.ErrMalformedAssertion wrapping the cause; an outage of
// Google's key set is apperr.ErrUpstream.
func (v *GoogleVerifier) Verify(ctx context.Context, assertion string) (Claims, error) {
	if err := ctx.Err(); err != nil {
		return Claims{}, err
	}
	if !hasThreeSegments(assertion) {
		return Claims{}, apperr.ErrMalformedAssertion.Wrap(errors.New("assertion is not a three segment token"))
	}

	var gc googleClaims
	_, err := jwt.ParseWithClaims(assertion, &gc, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, errKeysUnavailable) {
			return Claims{}, apperr.ErrUpstream.Wrap(err)
		}
		return Claims{}, apperr.ErrMalformedAssertion.Wrap(err)
	}

	if !slices.Contains(v.issuers, gc.Issuer) {
		return Claims{}, apperr.ErrMalformedAssertion.Wrap(fmt.Errorf("unexpected issuer %q", gc.Issuer))
	}
	if gc.Subject == "" || gc.Email == "" {
		return Claims{}, apperr.ErrMalformedAssertion.Wrap(errors.New("assertion lacks sub or email"))
	}
	verified, present := gc.emailVerified()
	if present && !verified {
		return Claims{}, apperr.ErrMalformedAssertion.Wrap(errors.New("email is not verified by the provider"))
	}

	return Claims{
		Subject:       gc.Subject,
		Email:         strings.ToLower(strings.TrimSpace(gc.Email)),
		EmailVerified: verified,
		Name:          gc.Name,
		Picture:       gc.Picture,
	}, nil
}

func hasThreeSegments(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
