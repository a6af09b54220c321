package storage

import (
	"context"
	"time"
)

// RedisClient defines the Redis operations the dashboard relies on
type RedisClient interface {
	// Key-value operations
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	// GetJSON unmarshals the value at key into dest and reports whether the key existed
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	Delete(ctx context.Context, key string) error

	// Pub/Sub operations
	Publish(ctx context.Context, channel string, message interface{}) error

	// Ping checks connectivity
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}

// PublishedMessage is a message recorded by MockRedisClient.Publish
type PublishedMessage struct {
	Channel string
	Payload []byte
}
