package index

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MilaVelkova/NoSQLRiak/internal/movie"
	"github.com/MilaVelkova/NoSQLRiak/pkg/errors"
	"github.com/MilaVelkova/NoSQLRiak/pkg/redis"
)

// indexKeyPrefix namespaces index entries away from the movie documents that
// share the same Redis database.
const indexKeyPrefix = "idx:"

// RedisStore implements Store over Redis. Each entry lives at
// "idx:<category>:<dimension value>" as a JSON document: an array of record
// keys for membership categories, an array of {key, score} pairs for ranked
// ones. Clear and Keys SCAN the category prefix. Transport failures wrap
// errors.ErrStoreUnavailable so callers can map them without knowing Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func indexKey(category, key string) string {
	return indexKeyPrefix + category + ":" + key
}

// Clear removes every entry in the category.
func (s *RedisStore) Clear(ctx context.Context, category string) error {
	pattern := indexKeyPrefix + category + ":*"
	if _, err := s.client.FlushByPattern(ctx, pattern); err != nil {
		return fmt.Errorf("clearing category %s: %w: %w", category, errors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetMembers returns the membership set for (category, key), empty if the
// entry does not exist.
func (s *RedisStore) GetMembers(ctx context.Context, category, key string) (MemberSet, error) {
	data, err := s.client.Get(ctx, indexKey(category, key))
	if err != nil {
		if redis.IsNilError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s/%s: %w: %w", category, key, errors.ErrStoreUnavailable, err)
	}
	var members MemberSet
	if err := json.Unmarshal([]byte(data), &members); err != nil {
		return nil, fmt.Errorf("decoding members %s/%s: %w", category, key, err)
	}
	return members, nil
}

// PutMembers overwrites the membership set for (category, key).
func (s *RedisStore) PutMembers(ctx context.Context, category, key string, members MemberSet) error {
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("encoding members %s/%s: %w", category, key, err)
	}
	if err := s.client.Set(ctx, indexKey(category, key), data); err != nil {
		return fmt.Errorf("writing %s/%s: %w: %w", category, key, errors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetRanked returns the ranked entry for (category, key), empty if absent.
func (s *RedisStore) GetRanked(ctx context.Context, category, key string) ([]ScoredRef, error) {
	data, err := s.client.Get(ctx, indexKey(category, key))
	if err != nil {
		if redis.IsNilError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s/%s: %w: %w", category, key, errors.ErrStoreUnavailable, err)
	}
	var refs []ScoredRef
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		return nil, fmt.Errorf("decoding ranked entry %s/%s: %w", category, key, err)
	}
	return refs, nil
}

// PutRanked overwrites the ranked entry for (category, key).
func (s *RedisStore) PutRanked(ctx context.Context, category, key string, refs []ScoredRef) error {
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("encoding ranked entry %s/%s: %w", category, key, err)
	}
	if err := s.client.Set(ctx, indexKey(category, key), data); err != nil {
		return fmt.Errorf("writing %s/%s: %w: %w", category, key, errors.ErrStoreUnavailable, err)
	}
	return nil
}

// Keys enumerates the dimension values present in the category.
func (s *RedisStore) Keys(ctx context.Context, category string) ([]string, error) {
	prefix := indexKeyPrefix + category + ":"
	raw, err := s.client.KeysByPattern(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("listing category %s: %w: %w", category, errors.ErrStoreUnavailable, err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	return keys, nil
}

// RedisPrimaryStore implements PrimaryStore over the "movie:*" keyspace.
type RedisPrimaryStore struct {
	client *redis.Client
}

// NewRedisPrimaryStore creates a PrimaryStore backed by the given client.
func NewRedisPrimaryStore(client *redis.Client) *RedisPrimaryStore {
	return &RedisPrimaryStore{client: client}
}

// Keys enumerates all movie record keys.
func (s *RedisPrimaryStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.KeysByPattern(ctx, movie.KeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("listing records: %w: %w", errors.ErrStoreUnavailable, err)
	}
	return keys, nil
}

// Fetch returns the raw document stored under recordKey.
func (s *RedisPrimaryStore) Fetch(ctx context.Context, recordKey string) ([]byte, error) {
	data, err := s.client.Get(ctx, recordKey)
	if err != nil {
		if redis.IsNilError(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrRecordNotFound, recordKey)
		}
		return nil, fmt.Errorf("fetching %s: %w: %w", recordKey, errors.ErrStoreUnavailable, err)
	}
	return []byte(data), nil
}

// Put stores a raw document under recordKey.
func (s *RedisPrimaryStore) Put(ctx context.Context, recordKey string, doc []byte) error {
	if err := s.client.Set(ctx, recordKey, doc); err != nil {
		return fmt.Errorf("storing %s: %w: %w", recordKey, errors.ErrStoreUnavailable, err)
	}
	return nil
}
