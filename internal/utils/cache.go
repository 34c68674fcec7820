package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error matching
	"strconv"       // Generation formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// Cache stores JSON documents in Redis with a fixed TTL. Listings are keyed
// under a generation counter so a single INCR invalidates every page.
type Cache struct {
	rdb *redis.Client // Redis client
	ttl time.Duration // Entry lifetime
}

// NewCache wraps a Redis client
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get retrieves a value from Redis and unmarshals it into dest
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// Set stores a value in Redis with the cache TTL
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err() // Set value in Redis with TTL
}

// Delete deletes a key from Redis
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err() // Delete key from Redis
}

// Generation returns the current generation of scope, zero when unset
func (c *Cache) Generation(ctx context.Context, scope string) (int64, error) {
	val, err := c.rdb.Get(ctx, generationKey(scope)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil // Never bumped
	} else if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Bump advances the generation of scope, orphaning every key built on the old one
func (c *Cache) Bump(ctx context.Context, scope string) error {
	return c.rdb.Incr(ctx, generationKey(scope)).Err()
}

func generationKey(scope string) string {
	return "gen:" + scope
}
