package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when the key is absent or its TTL elapsed.
var ErrKeyNotFound = errors.New("key not found")

// Expiring is a key-value store whose entries lapse after a TTL. Pending
// waitlist offers live here; the store is injected so the behavior holds
// across multiple process instances.
type Expiring interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
