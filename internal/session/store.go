package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned by Store.Get for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session records.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// NewStore selects a Store for kind ("auto", "redis" or "database"). Auto
// prefers Redis when a client is available.
func NewStore(kind string, db *gorm.DB, client *redis.Client) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "auto":
		if client != nil {
			return NewRedisStore(client), nil
		}
		return NewDBStore(db), nil
	case "redis":
		if client == nil {
			return nil, errors.New("SESSION_STORE=redis requires a reachable Redis")
		}
		return NewRedisStore(client), nil
	case "database":
		return NewDBStore(db), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

// RedisStore keeps sessions as JSON values under "session:<id>".
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	var ttl time.Duration
	if sess.ExpiresAt != nil {
		ttl = sess.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
	}
	return s.client.Set(ctx, sessionKey(sess.ID), payload, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

// DBStore keeps sessions in the sessions table.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Save(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *DBStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Session{}).Error
}

// DeleteExpired removes sessions whose expiry is before now and returns how many were removed.
func (s *DBStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Delete(&models.Session{})
	return res.RowsAffected, res.Error
}
