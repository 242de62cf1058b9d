package uniq

import (
	"context"

	backend "github.com/redis/go-redis/v9"

	"github.com/matzehuels/traitmix/pkg/errors"
)

// DefaultRedisKey is the Redis set used when no key is given.
const DefaultRedisKey = "traitmix:fingerprints"

// Redis is a [Set] backed by a Redis set. SADD is atomic on the server, so
// the set can be shared by several processes generating the same collection.
type Redis struct {
	client *backend.Client
	key    string
	owned  bool
}

// NewRedis wraps an existing client. Close does not close client.
func NewRedis(client *backend.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

// OpenRedis connects to the server at url (redis://[user:pass@]host:port/db)
// and verifies the connection.
func OpenRedis(ctx context.Context, url, key string) (*Redis, error) {
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid redis url")
	}
	client := backend.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(errors.ErrCodeLockAcquisition, err, "connect to redis at %s", opts.Addr)
	}
	r := NewRedis(client, key)
	r.owned = true
	return r, nil
}

// Insert adds fp with SADD; a reply of 1 means it was absent.
func (r *Redis) Insert(ctx context.Context, fp string) (bool, error) {
	n, err := r.client.SAdd(ctx, r.key, fp).Result()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "redis SADD %s", r.key)
	}
	return n == 1, nil
}

// Remove deletes fp with SREM; a reply of 1 means it was present.
func (r *Redis) Remove(ctx context.Context, fp string) (bool, error) {
	n, err := r.client.SRem(ctx, r.key, fp).Result()
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeLockAcquisition, err, "redis SREM %s", r.key)
	}
	return n == 1, nil
}

// Len returns SCARD of the set.
func (r *Redis) Len(ctx context.Context) (int, error) {
	n, err := r.client.SCard(ctx, r.key).Result()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeLockAcquisition, err, "redis SCARD %s", r.key)
	}
	return int(n), nil
}

// Reset deletes the set.
func (r *Redis) Reset(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeLockAcquisition, err, "redis DEL %s", r.key)
	}
	return nil
}

// Close closes the client if the set opened it.
func (r *Redis) Close() error {
	if !r.owned {
		return nil
	}
	return r.client.Close()
}

// Ensure Redis implements Set.
var _ Set = (*Redis)(nil)
