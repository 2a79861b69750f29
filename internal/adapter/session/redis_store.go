package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/infra/logger"
	"github.com/datasteward/steward/internal/ports"
)

const keyPrefix = "steward:session:"

// Config selects and tunes the session store
type Config struct {
	Enabled  bool
	RedisURL string
	TTL      time.Duration
}

// RedisStore keeps edit sessions in Redis as JSON with a TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewStore connects to Redis when enabled and falls back to memory otherwise
func NewStore(cfg Config, log logger.Logger) (ports.SessionStore, error) {
	if !cfg.Enabled {
		log.Info(context.Background(), "Redis disabled, keeping edit sessions in memory", nil)
		return NewMemoryStore(cfg.TTL), nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info(ctx, "Session store initialized", map[string]interface{}{
		"backend": "redis",
		"ttl":     cfg.TTL.String(),
	})
	return NewRedisStore(client, cfg.TTL), nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Save(ctx context.Context, session *domain.EditSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidRequest("session id is required")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.EditSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	// numbers stay json.Number so keys keep their exact text
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var session domain.EditSession
	if err := dec.Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
