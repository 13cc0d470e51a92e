package bootstrap

import (
	"testing"

	"journal/internal/config"
	"journal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		DBDriver:           "sqlite",
		DBDSN:              t.TempDir() + "/journal.db",
		PasswordIterations: 1000,
		PasswordSaltLength: 8,
	}
}

func TestInitRuntimeWithoutRedis(t *testing.T) {
	db, r, err := InitRuntime(sqliteConfig(t), Options{})
	require.NoError(t, err)
	assert.Nil(t, r)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestInitRuntimeWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := sqliteConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	_, r, err := InitRuntime(cfg, Options{})
	require.NoError(t, err)
	require.NotNil(t, r)
	t.Cleanup(func() { _ = r.Close() })
	assert.NoError(t, r.Ping(t.Context()).Err())
}

func TestInitRuntimeSeedsOnce(t *testing.T) {
	cfg := sqliteConfig(t)

	db, _, err := InitRuntime(cfg, Options{SeedDemo: true})
	require.NoError(t, err)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Positive(t, posts)
	sqlDB, _ := db.DB()
	require.NoError(t, sqlDB.Close())

	db, _, err = InitRuntime(cfg, Options{SeedDemo: true})
	require.NoError(t, err)
	var again int64
	require.NoError(t, db.Model(&models.Post{}).Count(&again).Error)
	assert.Equal(t, posts, again)
}
