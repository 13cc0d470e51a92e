package service

import (
	"context"
	"log/slog"

	"journal/internal/auth"
	"journal/internal/middleware"
	"journal/internal/models"
	"journal/internal/observability"
	"journal/internal/repository"
	"journal/internal/session"
	"journal/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// LoginPath is where a caller who registers an existing email is sent.
const LoginPath = "/api/auth/login"

const (
	maxNameLen  = 200
	maxEmailLen = 200
)

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	sessions *session.Manager
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is an opened session and the user it belongs to.
type LoginResult struct {
	Token string
	User  *models.User
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.Hasher, sessions *session.Manager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		sessions: sessions,
	}
}

// Register creates an account. The caller is not logged in afterwards.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Register")
	defer func() {
		finish(err)
		observability.AuthEvents.WithLabelValues("register", outcomeOf(err)).Inc()
	}()

	if err := validation.Required(
		validation.Field{Name: "Name", Value: in.Name, Max: maxNameLen},
		validation.Field{Name: "Email", Value: in.Email, Max: maxEmailLen},
		validation.Field{Name: "Password", Value: in.Password},
	); err != nil {
		return nil, err
	}

	email := validation.NormalizeEmail(in.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, alreadyRegistered()
	}
	if err != nil && !models.IsNotFound(err) {
		return nil, err
	}

	credential, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Name:     in.Name,
		Email:    email,
		Password: credential,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent signup for the same address
		if models.ErrorCode(err) == models.CodeDuplicate {
			return nil, alreadyRegistered()
		}
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user registered",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

func alreadyRegistered() error {
	return models.NewDuplicateError("You have already signed up with that email, log in instead").
		WithRedirect(LoginPath)
}

// Login checks the credentials and opens a session. Unknown addresses and
// wrong passwords are reported separately.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (result *LoginResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Login")
	defer func() {
		finish(err)
		observability.AuthEvents.WithLabelValues("login", outcomeOf(err)).Inc()
	}()

	if err := validation.Required(
		validation.Field{Name: "Email", Value: in.Email, Max: maxEmailLen},
		validation.Field{Name: "Password", Value: in.Password},
	); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, in.Email)
	if models.IsNotFound(err) {
		return nil, models.NewUnauthorizedError("The email is invalid")
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(in.Password, user.Password) {
		return nil, models.NewUnauthorizedError("The password is incorrect")
	}

	s.upgradeCredential(ctx, user, in.Password)

	token, err := s.sessions.Login(ctx, user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{Token: token, User: user}, nil
}

// upgradeCredential re-hashes a verified password stored with weaker
// settings. Failures are logged and never block the login.
func (s *AuthService) upgradeCredential(ctx context.Context, user *models.User, plaintext string) {
	if !s.hasher.NeedsRehash(user.Password) {
		return
	}
	credential, err := s.hasher.Hash(plaintext)
	if err == nil {
		err = s.userRepo.UpdatePassword(ctx, user.ID, credential)
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to upgrade stored credential",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	user.Password = credential
}

// Logout revokes the session behind token. It is safe to call without one.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, finish := observability.StartSpan(ctx, "AuthService.Logout")
	err := s.sessions.Logout(ctx, token)
	finish(err)
	observability.AuthEvents.WithLabelValues("logout", outcomeOf(err)).Inc()
	return err
}

// Identify resolves a session token to the caller's identity.
func (s *AuthService) Identify(ctx context.Context, token string) (session.Identity, error) {
	id, err := s.sessions.CurrentIdentity(ctx, token)
	if err != nil {
		return session.Anonymous(), models.NewInternalError(err)
	}
	return id, nil
}

func outcomeOf(err error) string {
	switch models.ErrorCode(err) {
	case "":
		if err != nil {
			return observability.OutcomeError
		}
		return observability.OutcomeSuccess
	case models.CodeForbidden, models.CodeUnauthorized:
		return observability.OutcomeDenied
	case models.CodeValidation, models.CodeDuplicate, models.CodeNotFound:
		return observability.OutcomeInvalid
	default:
		return observability.OutcomeError
	}
}

func spanAttrs(caller session.Identity) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.Int64("user.id", int64(caller.UserID))}
}
