package services

import (
	"context"
	"time"
)

// Cache is the slice of the redis wrapper the services need. Narrow on
// purpose so tests can substitute an in-memory implementation.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Increment(ctx context.Context, key string) (int64, error)
	GetCounter(ctx context.Context, key string) (int64, error)
	PushList(ctx context.Context, key string, value interface{}, expiration time.Duration) (int64, error)
	GetList(ctx context.Context, key string) ([]string, error)
	ListLength(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}
