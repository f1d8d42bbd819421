package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const redisChunkSize = 1000

type redisSetClient interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	Close() error
}

type SeenRedis struct {
	client redisSetClient
	key    string
}

func NewSeenRedis(ctx context.Context, addr, password, key string) (*SeenRedis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &SeenRedis{client: client, key: key}, nil
}

func (s *SeenRedis) Load(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read set %s: %w", s.key, err)
	}
	return ids, nil
}

func (s *SeenRedis) Save(ctx context.Context, ids []string) error {
	for _, chunk := range lo.Chunk(ids, redisChunkSize) {
		members := lo.ToAnySlice(chunk)
		if err := s.client.SAdd(ctx, s.key, members...).Err(); err != nil {
			return fmt.Errorf("failed to add to set %s: %w", s.key, err)
		}
	}
	return nil
}

func (s *SeenRedis) Close() error {
	return s.client.Close()
}
