// Package session provides session storage backends for refresh tokens.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobtrack/api/internal/store"
)

var ErrSessionNotFound = errors.New("token not found or expired")

// TokenData holds the data stored for each refresh token
type TokenData struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps refresh sessions and the access-token deny list in Redis.
type RedisStore struct {
	client        *redis.Client
	prefix        string
	revokedPrefix string
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:        client,
		prefix:        "jobtrack:refresh:",
		revokedPrefix: "jobtrack:revoked:",
	}
}

func (s *RedisStore) key(tokenHash string) string {
	return s.prefix + tokenHash
}

// SaveRefreshSession stores a refresh token with expiration
func (s *RedisStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	data := TokenData{
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}

	if err := s.client.Set(ctx, s.key(tokenHash), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// LookupRefreshSession returns the owner of a live refresh token. Only the
// user id is populated; callers load the profile from the user store.
func (s *RedisStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	jsonData, err := s.client.Get(ctx, s.key(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return store.User{}, ErrSessionNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	var data TokenData
	if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
		return store.User{}, fmt.Errorf("unmarshal token data: %w", err)
	}
	return store.User{ID: data.UserID}, nil
}

// RevokeRefreshSession deletes a refresh token
func (s *RedisStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAccessToken denies jti until the token would have expired anyway.
func (s *RedisStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.revokedPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *RedisStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.revokedPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
