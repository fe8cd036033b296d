package index

import (
	"context"
	stderrors "errors"
	"sort"
	"testing"

	"github.com/MilaVelkova/NoSQLRiak/pkg/errors"
)

func TestMemStoreMembers(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	got, err := s.GetMembers(ctx, "genre", "Drama")
	if err != nil {
		t.Fatalf("GetMembers on empty store: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}

	if err := s.PutMembers(ctx, "genre", "Drama", MemberSet{"movie:1", "movie:2"}); err != nil {
		t.Fatalf("PutMembers: %v", err)
	}
	got, err = s.GetMembers(ctx, "genre", "Drama")
	if err != nil {
		t.Fatalf("GetMembers: %v", err)
	}
	if len(got) != 2 || !got.Contains("movie:1") || !got.Contains("movie:2") {
		t.Errorf("members = %v", got)
	}
}

func TestMemberSetAdd(t *testing.T) {
	var set MemberSet
	set, changed := set.Add("movie:1")
	if !changed || len(set) != 1 {
		t.Fatalf("first Add: set = %v changed = %v", set, changed)
	}
	set, changed = set.Add("movie:1")
	if changed || len(set) != 1 {
		t.Errorf("duplicate Add must be a no-op: set = %v changed = %v", set, changed)
	}
}

func TestMemStoreRanked(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	refs := []ScoredRef{{Key: "movie:1", Score: 9.1}, {Key: "movie:2", Score: 8.4}}
	if err := s.PutRanked(ctx, "top_rated", "Drama", refs); err != nil {
		t.Fatalf("PutRanked: %v", err)
	}
	got, err := s.GetRanked(ctx, "top_rated", "Drama")
	if err != nil {
		t.Fatalf("GetRanked: %v", err)
	}
	if len(got) != 2 || got[0].Key != "movie:1" || got[1].Score != 8.4 {
		t.Errorf("ranked = %+v", got)
	}

	// Mutating the returned slice must not leak back into the store.
	got[0].Key = "mutated"
	again, _ := s.GetRanked(ctx, "top_rated", "Drama")
	if again[0].Key != "movie:1" {
		t.Error("GetRanked must return a copy")
	}
}

func TestMemStoreClearAndKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	s.PutMembers(ctx, "genre", "Drama", MemberSet{"movie:1"})
	s.PutMembers(ctx, "genre", "Action", MemberSet{"movie:2"})
	s.PutMembers(ctx, "actor", "Tom Hanks", MemberSet{"movie:1"})

	keys, err := s.Keys(ctx, "genre")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "Action" || keys[1] != "Drama" {
		t.Errorf("genre keys = %v", keys)
	}

	if err := s.Clear(ctx, "genre"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	keys, _ = s.Keys(ctx, "genre")
	if len(keys) != 0 {
		t.Errorf("genre keys after clear = %v", keys)
	}
	// Other categories stay intact.
	actors, _ := s.Keys(ctx, "actor")
	if len(actors) != 1 {
		t.Errorf("actor keys = %v", actors)
	}
}

func TestMemStorePrimary(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	primary := s.Primary()

	if _, err := primary.Fetch(ctx, "movie:1"); !stderrors.Is(err, errors.ErrRecordNotFound) {
		t.Errorf("Fetch missing record error = %v, want ErrRecordNotFound", err)
	}

	doc := []byte(`{"id": "1", "title": "Heat"}`)
	if err := primary.Put(ctx, "movie:1", doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := primary.Fetch(ctx, "movie:1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != string(doc) {
		t.Errorf("Fetch = %s", got)
	}

	keys, err := primary.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != "movie:1" {
		t.Errorf("keys = %v", keys)
	}
}
