package store

import "context"

// KV is the key/value persistence the store writes JSON documents through.
// A nil KV behaves like an environment without persistence.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
