// Package index defines the stores the indexer writes and the query engine
// reads: a primary record store keyed by "movie:" + id, and named index
// collections holding either membership sets or bounded ranked lists. The
// package also provides the Redis-backed implementation and an in-memory one
// for tests.
package index

import "context"

// MemberSet is the value of one membership index entry: the record keys
// associated with one dimension value, in insertion order. Uniqueness is the
// caller's responsibility via Add.
type MemberSet []string

// Contains reports whether the set holds the given record key.
func (s MemberSet) Contains(recordKey string) bool {
	for _, k := range s {
		if k == recordKey {
			return true
		}
	}
	return false
}

// Add returns the set with recordKey appended if absent, and whether the set
// changed.
func (s MemberSet) Add(recordKey string) (MemberSet, bool) {
	if s.Contains(recordKey) {
		return s, false
	}
	return append(s, recordKey), true
}

// ScoredRef is one entry of a ranked index value: a record key and the score
// it was ranked by.
type ScoredRef struct {
	Key   string  `json:"key"`
	Score float64 `json:"score"`
}

// Store is the contract over the named index collections. Get operations
// return empty values for absent keys, never an error. Put overwrites; there
// is no transactional guarantee across categories or keys, and callers own
// any read-modify-write merge logic.
type Store interface {
	// Clear removes every entry in the category.
	Clear(ctx context.Context, category string) error
	// GetMembers returns the membership set for (category, key).
	GetMembers(ctx context.Context, category, key string) (MemberSet, error)
	// PutMembers overwrites the membership set for (category, key).
	PutMembers(ctx context.Context, category, key string, members MemberSet) error
	// GetRanked returns the ranked entry for (category, key).
	GetRanked(ctx context.Context, category, key string) ([]ScoredRef, error)
	// PutRanked overwrites the ranked entry for (category, key).
	PutRanked(ctx context.Context, category, key string, refs []ScoredRef) error
	// Keys enumerates the dimension values for which entries exist.
	Keys(ctx context.Context, category string) ([]string, error)
}

// PrimaryStore gives read and bulk-write access to the movie documents.
type PrimaryStore interface {
	// Keys enumerates all record keys ("movie:*").
	Keys(ctx context.Context) ([]string, error)
	// Fetch returns the raw document for a record key, or
	// errors.ErrRecordNotFound if it does not exist.
	Fetch(ctx context.Context, recordKey string) ([]byte, error)
	// Put stores a raw document under a record key.
	Put(ctx context.Context, recordKey string, doc []byte) error
}
