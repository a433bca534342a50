// Package cache defines the result-cache store consumed by the query
// dispatcher, with an in-memory TTL implementation and a Redis-backed one.
//
// The dispatcher supplies (key, value, TTL) at write time and delegates all
// expiry bookkeeping to the store. Stores must be safe for concurrent use:
// evictions may race with in-flight dispatches, and a dispatch already past
// its cache read is unaffected by a concurrent clear.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/code19m/errx"
)

// Store is the key/value contract required by the query dispatcher.
type Store interface {
	// Get returns the value stored under key and whether it was present
	// and unexpired.
	Get(ctx context.Context, key string) (any, bool, error)

	// Put stores value under key. A positive ttl bounds the entry's
	// lifetime; zero or negative means no expiry.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error

	// Evict removes the entry stored under key, if any.
	Evict(ctx context.Context, key string) error

	// Clear removes every entry owned by this store.
	Clear(ctx context.Context) error
}

// Codec serializes cached values for stores that persist bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte) (any, error)
}

type jsonCodec struct{}

// JSONCodec returns the default Codec. Values round-trip through JSON, so a
// decoded value comes back as the generic JSON shape (map[string]any,
// []any, float64, ...), not the handler's concrete result type.
func JSONCodec() Codec {
	return jsonCodec{}
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errx.Wrap(err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errx.Wrap(err)
	}
	return v, nil
}
