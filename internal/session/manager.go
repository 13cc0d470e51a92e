package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"journal/internal/middleware"
	"journal/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "journal-api"
	tokenAudience = "journal-client"
)

// UserFinder resolves the user behind a session.
type UserFinder interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Manager ties signed session tokens to server-side session records. The
// token carries only the session id and user id; revocation happens by
// deleting the record.
type Manager struct {
	store  Store
	users  UserFinder
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager builds a Manager. A zero ttl means sessions last until logout.
func NewManager(store Store, users UserFinder, secret string, ttl time.Duration) *Manager {
	return &Manager{
		store:  store,
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login opens a session for user and returns its token.
func (m *Manager) Login(ctx context.Context, user *models.User) (string, error) {
	now := m.now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
	}

	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{tokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	if m.ttl > 0 {
		expiresAt := now.Add(m.ttl)
		sess.ExpiresAt = &expiresAt
		claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// CurrentIdentity resolves token to the caller's identity. Missing,
// malformed, revoked and expired tokens resolve to Anonymous; only store
// failures are returned as errors.
func (m *Manager) CurrentIdentity(ctx context.Context, token string) (Identity, error) {
	claims, ok := m.parse(token)
	if !ok {
		return Anonymous(), nil
	}

	sess, err := m.store.Get(ctx, claims.ID)
	if errors.Is(err, ErrSessionNotFound) {
		return Anonymous(), nil
	}
	if err != nil {
		return Anonymous(), fmt.Errorf("load session: %w", err)
	}
	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to drop expired session", slog.String("error", err.Error()))
		}
		return Anonymous(), nil
	}
	if strconv.FormatUint(uint64(sess.UserID), 10) != claims.Subject {
		return Anonymous(), nil
	}

	user, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			return Anonymous(), nil
		}
		return Anonymous(), fmt.Errorf("load session user: %w", err)
	}
	return IdentityOf(user), nil
}

// Logout revokes the session behind token. Unknown or invalid tokens are a no-op.
func (m *Manager) Logout(ctx context.Context, token string) error {
	claims, ok := m.parse(token)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) parse(token string) (*jwt.RegisteredClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.ID == "" {
		return nil, false
	}
	return claims, true
}
