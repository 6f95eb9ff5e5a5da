package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/luxsuv-rentals/pkg/config"
)

type Cache struct {
	Db *redis.Client
}

func Connect(ctx context.Context, cfg config.RedisConfig) (*Cache, error) {
	const op = "cache.Connect"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{Db: db}, nil
}

// GetJSON decodes the value at key into result. found is false when the key
// does not exist.
func (c *Cache) GetJSON(ctx context.Context, key string, result any) (found bool, err error) {
	const op = "cache.GetJSON"
	val, err := c.Db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	const op = "cache.SetJSON"
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.Db.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetJSONNX stores value only when key is absent. ok reports whether it did.
func (c *Cache) SetJSONNX(ctx context.Context, key string, value any, ttl time.Duration) (ok bool, err error) {
	const op = "cache.SetJSONNX"
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	ok, err = c.Db.SetNX(ctx, key, data, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// Change is the write an UpdateJSON callback asks for. A nil Value with
// Delete unset leaves the key untouched.
type Change struct {
	Value  any
	TTL    time.Duration
	Delete bool
}

const maxTxRetries = 16

var ErrTxContention = errors.New("too many concurrent updates")

// UpdateJSON runs a read-modify-write on key under WATCH. The current value
// is decoded into current and fn decides what to write. When another client
// changes key first the transaction is retried, so fn may run more than once
// and must only depend on what it is given.
func (c *Cache) UpdateJSON(ctx context.Context, key string, current any, fn func(found bool) Change) error {
	const op = "cache.UpdateJSON"

	txf := func(tx *redis.Tx) error {
		found := true
		val, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			found = false
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(val, current); err != nil {
				return err
			}
		}

		change := fn(found)
		if !change.Delete && change.Value == nil {
			return nil
		}

		var data []byte
		if !change.Delete {
			if data, err = json.Marshal(change.Value); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if change.Delete {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, change.TTL)
			}
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := c.Db.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	}
	return fmt.Errorf("%s: %w", op, ErrTxContention)
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.Db.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.Db.Close()
}
