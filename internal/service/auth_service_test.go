package service

import (
	"testing"

	"journal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Register(t *testing.T) {
	s := newStack(t)
	ctx := t.Context()

	alice, err := s.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "Alice@Example.com", Password: "pw1"})
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Equal(t, models.RoleAdmin, alice.Role, "first account is the admin")
	assert.NotEqual(t, "pw1", alice.Password)

	bob, err := s.auth.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "pw2"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, bob.Role)

	t.Run("duplicate email redirects to login", func(t *testing.T) {
		_, err := s.auth.Register(ctx, RegisterInput{Name: "Alice 2", Email: "alice@example.com", Password: "other"})
		assertCode(t, err, models.CodeDuplicate)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, LoginPath, appErr.Redirect)

		var count int64
		require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", "alice@example.com").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("missing fields", func(t *testing.T) {
		for _, in := range []RegisterInput{
			{Email: "x@example.com", Password: "p"},
			{Name: "X", Password: "p"},
			{Name: "X", Email: "x@example.com", Password: "  "},
		} {
			_, err := s.auth.Register(ctx, in)
			assertValidationError(t, err)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	s := newStack(t)
	ctx := t.Context()

	_, err := s.auth.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "pw1"})
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "pw1"})
		assertCode(t, err, models.CodeUnauthorized)
		assert.EqualError(t, err, "The email is invalid")

		var sessions int64
		require.NoError(t, s.db.Model(&models.Session{}).Count(&sessions).Error)
		assert.Zero(t, sessions)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "nope"})
		assertCode(t, err, models.CodeUnauthorized)
		assert.EqualError(t, err, "The password is incorrect")
	})

	t.Run("success resolves to the registered user", func(t *testing.T) {
		res, err := s.auth.Login(ctx, LoginInput{Email: " ALICE@example.com", Password: "pw1"})
		require.NoError(t, err)
		require.NotEmpty(t, res.Token)

		id, err := s.auth.Identify(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, res.User.ID, id.UserID)
		assert.Equal(t, "Alice", id.Name)
		assert.Equal(t, models.RoleAdmin, id.Role)
	})
}

func TestAuthService_LoginUpgradesWeakCredential(t *testing.T) {
	s := newStack(t)
	ctx := t.Context()

	weak, err := s.auth.hasher.Hash("pw1")
	require.NoError(t, err)
	require.NoError(t, s.db.Create(&models.User{Name: "Old", Email: "old@example.com", Password: weak}).Error)

	s.auth.hasher.Iterations = 2000
	res, err := s.auth.Login(ctx, LoginInput{Email: "old@example.com", Password: "pw1"})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, s.db.First(&stored, res.User.ID).Error)
	assert.Contains(t, stored.Password, "pbkdf2:sha256:2000$")
	assert.True(t, s.auth.hasher.Verify("pw1", stored.Password))
}

func TestAuthService_Logout(t *testing.T) {
	s := newStack(t)
	ctx := t.Context()

	token, id := s.loginAs(t, "Alice", "alice@example.com", "pw1")
	require.False(t, id.IsAnonymous())

	require.NoError(t, s.auth.Logout(ctx, token))
	after, err := s.auth.Identify(ctx, token)
	require.NoError(t, err)
	assert.True(t, after.IsAnonymous())

	// idempotent
	assert.NoError(t, s.auth.Logout(ctx, token))
	assert.NoError(t, s.auth.Logout(ctx, ""))
}
