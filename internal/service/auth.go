package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/yesid10/taskflow-api/internal/apperr"
	"github.com/yesid10/taskflow-api/internal/model"
	"github.com/yesid10/taskflow-api/internal/queue"
	"github.com/yesid10/taskflow-api/internal/repository"
	"github.com/yesid10/taskflow-api/internal/utils"
)

// MsgEmailTaken is reported on the email field when registering an address
// that already has an account.
const MsgEmailTaken = "The email has already been taken."

// RegisterRequest is the payload of POST /register.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Validate checks the request fields.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(
			&r.PasswordConfirmation,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// AuthResult is a user together with a token issued for it.
type AuthResult struct {
	User  model.User
	Token Token
}

// GoogleLoginResult extends AuthResult with what reconciliation did.
type GoogleLoginResult struct {
	AuthResult
	Created bool
	Linked  bool
}

// AuthService implements register, login, federated login and logout.
type AuthService struct {
	users      UserStore
	creds      *CredentialVerifier
	reconciler *AccountReconciler
	tokens     *TokenService
	google     IdentityVerifier
	bcryptCost int
	events     emitter
	log        *slog.Logger
}

// NewAuthService wires the auth core. google and events may be nil, which
// disables federated login and event publishing respectively.
func NewAuthService(
	users UserStore,
	creds *CredentialVerifier,
	reconciler *AccountReconciler,
	tokens *TokenService,
	google IdentityVerifier,
	events EventPublisher,
	bcryptCost int,
	log *slog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		creds:      creds,
		reconciler: reconciler,
		tokens:     tokens,
		google:     google,
		bcryptCost: bcryptCost,
		events:     emitter{pub: events, log: log},
		log:        log,
	}
}

// Register validates req, creates a local account and issues a token.
// A taken email is a validation error and creates nothing.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := validationError(req.Validate()); err != nil {
		return AuthResult{}, err
	}

	_, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return AuthResult{}, apperr.Validation(map[string]string{"email": MsgEmailTaken})
	case !errors.Is(err, repository.ErrUserNotFound):
		return AuthResult{}, apperr.ErrPersistence.Wrap(err)
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	u := model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		AuthProvider: model.ProviderLocal,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return AuthResult{}, apperr.Validation(map[string]string{"email": MsgEmailTaken})
		}
		return AuthResult{}, apperr.ErrPersistence.Wrap(err)
	}

	tok, err := s.tokens.Issue(u)
	if err != nil {
		return AuthResult{}, err
	}

	ev := queue.NewAuthEvent(queue.EventUserRegistered, u.ID)
	ev.Email, ev.Provider = u.Email, u.AuthProvider
	s.events.emit(ctx, ev)

	return AuthResult{User: u, Token: tok}, nil
}

// Login exchanges an email and password for a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		return Token{}, err
	}
	return s.tokens.Issue(u)
}

// LoginWithGoogle verifies a Google ID token, reconciles it with the users
// table and issues a token for the resulting account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, assertion string) (GoogleLoginResult, error) {
	if strings.TrimSpace(assertion) == "" {
		return GoogleLoginResult{}, apperr.Validation(map[string]string{"google_token": "cannot be blank"}).
			WithMessage("The Google token is required")
	}
	if s.google == nil {
		return GoogleLoginResult{}, apperr.ErrUpstream.Wrap(errors.New("google login is not configured"))
	}

	claims, err := s.google.Verify(ctx, assertion)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindMalformedAssertion {
			return GoogleLoginResult{}, err
		}
		return GoogleLoginResult{}, apperr.ErrUpstream.Wrap(err)
	}

	res, err := s.reconciler.Reconcile(ctx, claims, model.ProviderGoogle)
	if err != nil {
		return GoogleLoginResult{}, err
	}
	tok, err := s.tokens.Issue(res.User)
	if err != nil {
		return GoogleLoginResult{}, apperr.ErrUpstream.Wrap(err)
	}

	ev := queue.NewAuthEvent(queue.EventUserFederatedLogin, res.User.ID)
	ev.Email, ev.Provider = res.User.Email, model.ProviderGoogle
	ev.Created, ev.Linked = res.Created, res.Linked
	s.events.emit(ctx, ev)

	return GoogleLoginResult{
		AuthResult: AuthResult{User: res.User, Token: tok},
		Created:    res.Created,
		Linked:     res.Linked,
	}, nil
}

// Logout invalidates the caller's token. A denylist failure is logged and
// swallowed; the token still dies at its own expiry.
func (s *AuthService) Logout(ctx context.Context, id Identity) {
	if err := s.tokens.Invalidate(ctx, id); err != nil {
		s.log.Warn("failed to invalidate token on logout", "user_id", id.User.ID, "error", err)
	}
	s.events.emit(ctx, queue.NewAuthEvent(queue.EventUserLoggedOut, id.User.ID))
}

// Refresh delegates to the token service.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Token, error) {
	return s.tokens.Refresh(ctx, raw)
}
