package statestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	coreconfig "shopbot/core/config"
	"shopbot/core/logger"

	"github.com/redis/go-redis/v9"
	"log/slog"
)

// RedisStore persists chat state in Redis under chat:{id}:state.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis, verifies connectivity, and returns the store.
func NewRedisStore(cfg coreconfig.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Store.Error("redis connect failed",
			slog.String("event", "store.connect"),
			slog.String("addr", cfg.Addr()),
			slog.Int("db", cfg.DB),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Store.Info("redis connected",
		slog.String("event", "store.connect"),
		slog.String("addr", cfg.Addr()),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.Took(start)),
	)

	return &RedisStore{client: client}, nil
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("chat:%d:state", chatID)
}

// Get returns the stored state for the chat.
func (s *RedisStore) Get(ctx context.Context, chatID int64) (string, bool, error) {
	val, err := s.client.Get(ctx, stateKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get chat %d: %w", chatID, err)
	}
	return val, true, nil
}

// Set stores the state for the chat. States have no expiry: a chat
// resumes where it left off regardless of idle time.
func (s *RedisStore) Set(ctx context.Context, chatID int64, state string) error {
	if err := s.client.Set(ctx, stateKey(chatID), state, 0).Err(); err != nil {
		return fmt.Errorf("redis set chat %d: %w", chatID, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
