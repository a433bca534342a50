package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/redis/go-redis/v9"
	"github.com/rise-and-shine/cqrsbus/validation"
)

// RedisConfig defines the configuration options for the Redis-backed store.
type RedisConfig struct {
	// Addrs is the list of Redis server addresses in the format
	// "host:port,host2:port2".
	Addrs string `yaml:"addrs" validate:"required"`

	// Username is the username for the Redis server/cluster.
	Username string `yaml:"username"`

	// Password is the password for the Redis server/cluster.
	Password string `yaml:"password"`

	// IsClusterMode indicates whether the target is a Redis cluster.
	IsClusterMode bool `yaml:"is_cluster_mode"`

	// KeyPrefix namespaces every key written by this store, so Clear only
	// touches entries the store owns.
	KeyPrefix string `yaml:"key_prefix" default:"cqrs:query:"`
}

// Redis is a Store backed by a Redis server or cluster. Expiry bookkeeping
// is native: TTLs are handed to Redis at write time.
type Redis struct {
	client redis.Cmdable
	codec  Codec
	prefix string
}

// NewRedis creates a Redis-backed store. A nil codec defaults to JSONCodec;
// see its note on decoded value shapes.
func NewRedis(cfg RedisConfig, codec Codec) (*Redis, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}

	if err := validation.ValidateSchema(cfg); err != nil {
		return nil, err
	}

	if codec == nil {
		codec = JSONCodec()
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:         strings.Split(cfg.Addrs, ","),
		Username:      cfg.Username,
		Password:      cfg.Password,
		IsClusterMode: cfg.IsClusterMode,
	})

	return &Redis{
		client: client,
		codec:  codec,
		prefix: cfg.KeyPrefix,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errx.Wrap(err)
	}

	value, err := r.codec.Unmarshal(data)
	if err != nil {
		return nil, false, err
	}

	return value, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := r.codec.Marshal(value)
	if err != nil {
		return err
	}

	if ttl < 0 {
		ttl = 0
	}

	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return errx.Wrap(err)
	}

	return nil
}

func (r *Redis) Evict(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errx.Wrap(err)
	}
	return nil
}

// Clear removes every key under the store's prefix using incremental SCAN,
// so it stays safe to run against a live instance.
func (r *Redis) Clear(ctx context.Context) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			return errx.Wrap(err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return errx.Wrap(err)
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}
