package redis

import (
	"fmt"
	"log"
)

// InitRedis initializes the Redis connection and checks that it is reachable.
// The bus only uses pub/sub, so the database is never flushed.
func InitRedis(Addr string, DB int) (*RedisClient, error) {
	rc, err := NewRedisClient(Addr, DB)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := rc.Ping(rc.ctx); err != nil {
		rc.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Println("Successfully connected to Redis")
	return rc, nil
}

// CloseRedis gracefully closes the Redis connection
func CloseRedis(rc *RedisClient) error {
	if err := rc.client.Close(); err != nil {
		return fmt.Errorf("error closing Redis connection: %v", err)
	}
	return nil
}
