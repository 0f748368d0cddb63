package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"retail-dashboard/internal/pipeline"
)

const redisKeyPrefix = "dashboard:session:"

// RedisStore keeps view states as JSON values with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to url and checks the connection.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (pipeline.ViewState, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pipeline.ViewState{}, false, nil
	}
	if err != nil {
		return pipeline.ViewState{}, false, fmt.Errorf("get session: %w", err)
	}

	var state pipeline.ViewState
	if err := json.Unmarshal(raw, &state); err != nil {
		return pipeline.ViewState{}, false, fmt.Errorf("decode session: %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, state pipeline.ViewState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKey(id)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
