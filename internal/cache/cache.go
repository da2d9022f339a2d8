package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoItem is returned when a key is absent from the store or its
	// entry has expired.
	ErrNoItem = errors.New("no value found in cache")

	// ErrUnavailable is returned when the store itself cannot be reached
	// or fails mid-operation. Callers treat this as a miss, never as a
	// request failure.
	ErrUnavailable = errors.New("cache store unavailable")
)

type ValidationError struct {
	Reason string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("creation of cache store failed for reason : %s", ve.Reason)
}

// Store is the contract every cache backend implements. Values are opaque
// byte slices; expiry is enforced by the store, not by callers.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern, e.g.
	// "items:7*". A pattern that matches nothing is a no-op.
	DeletePattern(ctx context.Context, pattern string) error
}
