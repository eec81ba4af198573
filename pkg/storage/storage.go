package storage

import "context"

// Storage is the key-value persistence layer for engine settings.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set creates or replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Close releases resources.
	Close() error
}
