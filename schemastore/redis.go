package schemastore

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"
)

const defaultKeyPrefix = "spanmarshal::"

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the prefix prepended to every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(store *RedisStore) {
		store.prefix = prefix
	}
}

// RedisStore keeps schema documents in redis so they are shared between processes.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client redis.UniversalClient, options ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, xerrors.New("schemastore: redis client is nil")
	}

	store := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
	}
	for _, option := range options {
		option(store)
	}
	return store, nil
}

// NewRedisStoreWithOptions creates a redis client from go-redis options and wraps it.
func NewRedisStoreWithOptions(
	options *redis.Options, storeOptions ...RedisOption,
) (*RedisStore, error) {
	if options == nil {
		return nil, xerrors.New("schemastore: redis options are required")
	}
	return NewRedisStore(redis.NewClient(options), storeOptions...)
}

func (store *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	document, err := store.client.Get(ctx, store.prefix+key).Bytes()
	if xerrors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, xerrors.Errorf("error reading schema from redis: %w", err)
	}
	return document, nil
}

func (store *RedisStore) Put(
	ctx context.Context, key string, document []byte, ttl time.Duration,
) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := store.client.Set(ctx, store.prefix+key, document, ttl).Err(); err != nil {
		return xerrors.Errorf("error writing schema to redis: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (store *RedisStore) Close() error {
	return store.client.Close()
}
