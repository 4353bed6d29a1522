package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("product cache miss")

// KV is a small read-through store for denormalized product views.
// Entries are written without expiry and evicted explicitly when the
// underlying product changes.
type KV struct {
	client *redis.Client
}

func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

func (k *KV) Get(ctx context.Context, key string, dest any) error {
	val, err := k.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to get key %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

func (k *KV) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	if ret := k.client.Set(ctx, key, data, 0); ret.Err() != nil {
		return fmt.Errorf("failed to set key %s: %w", key, ret.Err())
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if ret := k.client.Del(ctx, keys...); ret.Err() != nil {
		return fmt.Errorf("failed to delete keys: %w", ret.Err())
	}
	return nil
}
