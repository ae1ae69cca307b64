// Package cache кэширует публичные списки. Источник истины остаётся в базе;
// ошибки кэша возвращаются вызывающему только для логирования.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Теги инвалидации.
const (
	TagEvents   = "events"
	TagSchedule = "schedule"
	TagSignups  = "signups"
	TagSections = "sections"
	TagBanner   = "banner"
)

func EventTag(id string) string {
	return "event:" + id
}

type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, tags ...string) error
	InvalidateTags(ctx context.Context, tags ...string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: "venue:",
	}
}

// NewRedisClient разбирает REDIS_URL и проверяет соединение.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) tagKey(tag string) string {
	return c.prefix + "tag:" + tag
}

func (c *RedisCache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("cached value for %s is corrupt: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, tags ...string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	full := c.key(key)
	if err := c.client.Set(ctx, full, data, c.ttl).Err(); err != nil {
		return err
	}
	for _, tag := range tags {
		tk := c.tagKey(tag)
		if err := c.client.SAdd(ctx, tk, full).Err(); err != nil {
			return err
		}
		if err := c.client.Expire(ctx, tk, 2*c.ttl).Err(); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateTags удаляет все ключи, записанные под тегами, и сами множества тегов.
func (c *RedisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	var errs []error
	for _, tag := range tags {
		tk := c.tagKey(tag)
		keys, err := c.client.SMembers(ctx, tk).Result()
		if err != nil {
			errs = append(errs, fmt.Errorf("tag %s: %w", tag, err))
			continue
		}
		if err := c.client.Del(ctx, append(keys, tk)...).Err(); err != nil {
			errs = append(errs, fmt.Errorf("tag %s: %w", tag, err))
		}
	}
	return errors.Join(errs...)
}

// Noop используется, когда REDIS_URL не задан.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, interface{}, ...string) error { return nil }

func (Noop) InvalidateTags(context.Context, ...string) error { return nil }
