// Package cache provides the Redis-backed public menu cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tendant/digimenu/pkg/catalog"
)

const (
	// menuKeyPrefix namespaces cached menus by restaurant slug.
	menuKeyPrefix = "digimenu:menu:"
	// menuGenPrefix holds the per-slug generation bumped on invalidation.
	menuGenPrefix = "digimenu:menugen:"
)

// NewRedisClient creates a Redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// MenuCache stores rendered public menus as JSON with a TTL.
type MenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewMenuCache creates a menu cache. Entries expire after ttl even without
// explicit invalidation.
func NewMenuCache(client *redis.Client, ttl time.Duration) *MenuCache {
	return &MenuCache{client: client, ttl: ttl}
}

func menuKey(slug string) string {
	return menuKeyPrefix + slug
}

func genKey(slug string) string {
	return menuGenPrefix + slug
}

// readGen treats a missing generation as zero.
func readGen(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the cached menu for slug, or nil on a miss, together with the
// slug's current generation.
func (c *MenuCache) Get(ctx context.Context, slug string) (*catalog.PublicMenu, int64, error) {
	var genCmd, menuCmd *redis.StringCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		genCmd = pipe.Get(ctx, genKey(slug))
		menuCmd = pipe.Get(ctx, menuKey(slug))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}
	gen, err := readGen(genCmd)
	if err != nil {
		return nil, 0, fmt.Errorf("read menu generation: %w", err)
	}
	data, err := menuCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var menu catalog.PublicMenu
	if err := json.Unmarshal(data, &menu); err != nil {
		return nil, 0, fmt.Errorf("decode cached menu: %w", err)
	}
	return &menu, gen, nil
}

// Set caches menu under slug if the slug is still at generation gen. A
// write that lost the race with Delete is dropped silently.
func (c *MenuCache) Set(ctx context.Context, slug string, gen int64, menu *catalog.PublicMenu) error {
	data, err := json.Marshal(menu)
	if err != nil {
		return fmt.Errorf("encode menu: %w", err)
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGen(tx.Get(ctx, genKey(slug)))
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, menuKey(slug), data, c.ttl)
			return nil
		})
		return err
	}, genKey(slug))
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Delete drops the cached menu for slug and advances its generation.
func (c *MenuCache) Delete(ctx context.Context, slug string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(slug))
		pipe.Del(ctx, menuKey(slug))
		return nil
	})
	return err
}
