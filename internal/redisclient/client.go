package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"

	"github.com/go-redis/redis/v8"
)

const maxUpdateRetries = 5

// ErrSessionNotFound is returned for unknown or expired ordering sessions
var ErrSessionNotFound = apperr.NotFound("ordering session not found or expired")

// Client stores ordering sessions in Redis
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client and checks the connection
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewFromRedis(rdb, ttl), nil
}

// NewFromRedis wraps an existing connection
func NewFromRedis(rdb *redis.Client, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Client{rdb: rdb, ttl: ttl}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// SaveSession writes the session and refreshes its expiry
func (c *Client) SaveSession(ctx context.Context, s *models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := c.rdb.Set(ctx, sessionKey(s.ID), data, c.ttl).Err(); err != nil {
		return apperr.Collaborator(err, "failed to save session", "check the Redis connection")
	}
	return nil
}

// LoadSession reads a session
func (c *Client) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := c.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, apperr.Collaborator(err, "failed to load session", "check the Redis connection")
	}
	return decode(data)
}

// UpdateSession loads a session, applies fn and saves the result atomically.
// Concurrent updates of the same session are retried; fn may run more than once.
func (c *Client) UpdateSession(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	key := sessionKey(id)
	var result *models.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		s, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
		s.UpdatedAt = time.Now().UTC()
		encoded, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, c.ttl)
			return nil
		})
		if err == nil {
			result = s
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := c.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.Collaborator(err, "failed to update session", "check the Redis connection")
	}
	return nil, apperr.Collaborator(redis.TxFailedErr, "session is being modified concurrently", "retry the request")
}

// DeleteSession removes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return apperr.Collaborator(err, "failed to delete session", "check the Redis connection")
	}
	return nil
}

func decode(data []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
