package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/MilaVelkova/NoSQLRiak/pkg/errors"
)

// MemStore is an in-memory Store and PrimaryStore used by tests and
// benchmarks. It mirrors the Redis implementation's semantics: overwrite
// puts, empty results for absent keys, no cross-key atomicity.
type MemStore struct {
	mu      sync.RWMutex
	members map[string]map[string]MemberSet
	ranked  map[string]map[string][]ScoredRef
	docs    map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		members: make(map[string]map[string]MemberSet),
		ranked:  make(map[string]map[string][]ScoredRef),
		docs:    make(map[string][]byte),
	}
}

func (s *MemStore) Clear(ctx context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, category)
	delete(s.ranked, category)
	return nil
}

func (s *MemStore) GetMembers(ctx context.Context, category, key string) (MemberSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := s.members[category][key]
	out := make(MemberSet, len(members))
	copy(out, members)
	return out, nil
}

func (s *MemStore) PutMembers(ctx context.Context, category, key string, members MemberSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.members[category] == nil {
		s.members[category] = make(map[string]MemberSet)
	}
	stored := make(MemberSet, len(members))
	copy(stored, members)
	s.members[category][key] = stored
	return nil
}

func (s *MemStore) GetRanked(ctx context.Context, category, key string) ([]ScoredRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := s.ranked[category][key]
	out := make([]ScoredRef, len(refs))
	copy(out, refs)
	return out, nil
}

func (s *MemStore) PutRanked(ctx context.Context, category, key string, refs []ScoredRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ranked[category] == nil {
		s.ranked[category] = make(map[string][]ScoredRef)
	}
	stored := make([]ScoredRef, len(refs))
	copy(stored, refs)
	s.ranked[category][key] = stored
	return nil
}

func (s *MemStore) Keys(ctx context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.members[category])+len(s.ranked[category]))
	for key := range s.members[category] {
		keys = append(keys, key)
	}
	for key := range s.ranked[category] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// PrimaryStore operations.

func (s *MemStore) PrimaryKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for key := range s.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemStore) Fetch(ctx context.Context, recordKey string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[recordKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrRecordNotFound, recordKey)
	}
	out := make([]byte, len(doc))
	copy(out, doc)
	return out, nil
}

func (s *MemStore) Put(ctx context.Context, recordKey string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(doc))
	copy(stored, doc)
	s.docs[recordKey] = stored
	return nil
}

// Primary adapts the MemStore to the PrimaryStore interface (whose Keys
// method name collides with the index Store's).
func (s *MemStore) Primary() PrimaryStore {
	return memPrimary{s}
}

type memPrimary struct {
	store *MemStore
}

func (p memPrimary) Keys(ctx context.Context) ([]string, error) {
	return p.store.PrimaryKeys(ctx)
}

func (p memPrimary) Fetch(ctx context.Context, recordKey string) ([]byte, error) {
	return p.store.Fetch(ctx, recordKey)
}

func (p memPrimary) Put(ctx context.Context, recordKey string, doc []byte) error {
	return p.store.Put(ctx, recordKey, doc)
}
