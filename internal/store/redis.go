package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

const keyPrefix = "yttr:"

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore backs the durable preference store and the transcript cache.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

var _ Store = (*RedisStore)(nil)
var _ Cache = (*RedisStore)(nil)

func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, apperrors.NewStoreError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		s.logger.Error("Store get failed", zap.String("key", key), zap.Error(err))
		return "", apperrors.NewStoreError("get failed", "get", key, err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		s.logger.Error("Store set failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("set failed", "set", key, err)
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		s.logger.Error("Store delete failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("delete failed", "del", key, err)
	}
	return nil
}

func (s *RedisStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	value, err := s.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		s.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, apperrors.NewStoreError("get failed", "get", key, err)
	}
	if err := json.Unmarshal([]byte(value), dest); err != nil {
		s.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
		return false, apperrors.NewStoreError("unmarshal failed", "get", key, err)
	}
	return true, nil
}

func (s *RedisStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return apperrors.NewStoreError("marshal failed", "set", key, err)
	}
	if err := s.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		s.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("set failed", "set", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	s.logger.Info("Redis disconnected")
	return nil
}
