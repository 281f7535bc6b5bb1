package redis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisClient handles Redis operations
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client instance. Addr is either a plain
// host:port or a redis:// / rediss:// URL.
func NewRedisClient(Addr string, DB int) (*RedisClient, error) {
	var client *redis.Client
	if strings.HasPrefix(Addr, "redis://") || strings.HasPrefix(Addr, "rediss://") {
		log.Println("Connecting to remote Redis...")
		opt, err := redis.ParseURL(Addr)
		if err != nil {
			return nil, fmt.Errorf("error parsing Redis URL: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{
			Addr: Addr,
			DB:   DB,
		})
	}
	return &RedisClient{
		client: client,
		ctx:    context.Background(),
	}, nil
}

// Ping checks that the server answers
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Publish sends a payload to every subscriber of channel
func (rc *RedisClient) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := rc.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("error publishing to %s: %w", channel, err)
	}
	return nil
}

// Subscribe opens a pub/sub connection on channel and waits for the server to
// confirm it, so nothing published after Subscribe returns is missed.
func (rc *RedisClient) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	ps := rc.client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("error subscribing to %s: %w", channel, err)
	}
	return ps, nil
}
