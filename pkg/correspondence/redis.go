package correspondence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the table in a single hash, field = foreign id.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Save replaces the hash atomically.
func (s *RedisStore) Save(ctx context.Context, t *Table) error {
	values := make(map[string]interface{}, t.Len())
	for _, f := range t.ForeignIDs() {
		l, _ := t.Lookup(f)
		values[fmt.Sprint(f)] = l
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save correspondence table to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (*Table, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("load correspondence table from redis: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}
	b := NewBuilder(nil)
	for f, l := range raw {
		if err := b.putStrings(f, l); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
