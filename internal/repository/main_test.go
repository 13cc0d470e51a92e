package repository

import (
	"testing"

	"journal/internal/cache"
	"journal/internal/database"
	"journal/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB wires GORM's postgres dialect to sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLite returns a migrated in-memory database.
func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	return db
}

func setupCache(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewStore(client), mr
}

func seedUser(t *testing.T, repo UserRepository, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "pbkdf2:sha256:1$salt$00"}
	require.NoError(t, repo.Create(t.Context(), u))
	return u
}

func seedPost(t *testing.T, repo PostRepository, authorID uint, title string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:    title,
		Subtitle: "sub " + title,
		Date:     "April 05, 2024",
		Body:     "body " + title,
		ImageURL: "https://img.example/" + title,
		AuthorID: authorID,
	}
	require.NoError(t, repo.Create(t.Context(), p))
	return p
}
