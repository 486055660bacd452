package storage

import "context"

// Storage is a flat key/value store. Get returns (nil, nil) for a key that
// was never written or has been removed.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
