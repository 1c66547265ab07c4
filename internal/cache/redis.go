package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

const (
	defaultTTL       = 24 * time.Hour
	defaultKeyPrefix = "exm:unique"
)

type Config struct {
	Addr      string        `envconfig:"ADDR"`
	Password  string        `envconfig:"PASSWORD"`
	DB        int           `envconfig:"DB"`
	TTL       time.Duration `envconfig:"TTL" default:"24h"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"exm:unique"`
}

// Redis shares the unique event memo between service instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisWithClient(client, cfg), nil
}

func NewRedisWithClient(client *redis.Client, cfg Config) *Redis {
	r := &Redis{
		client: client,
		ttl:    cfg.TTL,
		prefix: cfg.KeyPrefix,
	}
	if r.ttl <= 0 {
		r.ttl = defaultTTL
	}
	if r.prefix == "" {
		r.prefix = defaultKeyPrefix
	}
	return r
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) HasUniqueEvent(ctx context.Context, key domain.UniqueEventKey) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) SetUniqueEvent(ctx context.Context, key domain.UniqueEventKey) error {
	if err := r.client.SetNX(ctx, r.key(key), "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func (r *Redis) key(key domain.UniqueEventKey) string {
	return r.prefix + ":" + key.String()
}
