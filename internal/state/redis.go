package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the state store with Redis, namespaced per device so
// several tills can share one instance. Keys are persistent (no TTL): the
// cart must survive until it is explicitly finalized or cleared.
type RedisStore struct {
	client *redis.Client
	device string
}

// NewRedisStore connects to the given address. The device name namespaces
// all keys written by this till.
func NewRedisStore(addr, device string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		device: device,
	}
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("comanda:%s:%s", s.device, key)
}

func (s *RedisStore) Save(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
