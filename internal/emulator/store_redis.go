package emulator

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentStore keeps each parent path as a redis hash, so listing a
// collection is a single HGETALL.
type RedisDocumentStore struct {
	client *redis.Client
	prefix string
}

func NewRedisDocumentStore(client *redis.Client) *RedisDocumentStore {
	return &RedisDocumentStore{client: client, prefix: "docs:"}
}

func (s *RedisDocumentStore) key(parent string) string {
	return s.prefix + parent
}

func (s *RedisDocumentStore) Put(ctx context.Context, parent, id string, doc json.RawMessage) error {
	return s.client.HSet(ctx, s.key(parent), id, []byte(doc)).Err()
}

func (s *RedisDocumentStore) Get(ctx context.Context, parent, id string) (json.RawMessage, error) {
	raw, err := s.client.HGet(ctx, s.key(parent), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (s *RedisDocumentStore) List(ctx context.Context, parent string) (map[string]json.RawMessage, error) {
	entries, err := s.client.HGetAll(ctx, s.key(parent)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(entries))
	for id, doc := range entries {
		out[id] = json.RawMessage(doc)
	}
	return out, nil
}

func (s *RedisDocumentStore) Delete(ctx context.Context, parent, id string) error {
	return s.client.HDel(ctx, s.key(parent), id).Err()
}
