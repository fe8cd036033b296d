package index

import "testing"

func TestRankingBufferInsertOrder(t *testing.T) {
	b := NewRankingBuffer(10, nil)
	b.Insert("movie:1", 7.0)
	b.Insert("movie:2", 9.0)
	b.Insert("movie:3", 8.0)

	want := []ScoredRef{
		{Key: "movie:2", Score: 9.0},
		{Key: "movie:3", Score: 8.0},
		{Key: "movie:1", Score: 7.0},
	}
	got := b.Entries()
	if len(got) != len(want) {
		t.Fatalf("Len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRankingBufferCap(t *testing.T) {
	b := NewRankingBuffer(3, nil)
	scores := []float64{5, 9, 7, 8, 6, 10}
	for i, score := range scores {
		b.Insert("movie:"+string(rune('a'+i)), score)
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	got := b.Entries()
	wantScores := []float64{10, 9, 8}
	for i, want := range wantScores {
		if got[i].Score != want {
			t.Errorf("entry %d score = %v, want %v", i, got[i].Score, want)
		}
	}
}

// An insert that cannot beat the current tail of a full buffer must leave
// the buffer untouched.
func TestRankingBufferFullRejectsLowScore(t *testing.T) {
	b := NewRankingBuffer(2, nil)
	b.Insert("movie:1", 9.0)
	b.Insert("movie:2", 8.0)
	b.Insert("movie:3", 7.0)

	got := b.Entries()
	if len(got) != 2 || got[0].Key != "movie:1" || got[1].Key != "movie:2" {
		t.Errorf("entries = %+v, want movie:1 then movie:2", got)
	}
}

// Equal scores keep insertion order: the earlier entry stays ahead.
func TestRankingBufferTieStability(t *testing.T) {
	b := NewRankingBuffer(10, nil)
	b.Insert("movie:first", 8.0)
	b.Insert("movie:second", 8.0)
	b.Insert("movie:third", 8.0)

	got := b.Entries()
	wantKeys := []string{"movie:first", "movie:second", "movie:third"}
	for i, want := range wantKeys {
		if got[i].Key != want {
			t.Errorf("entry %d key = %q, want %q", i, got[i].Key, want)
		}
	}
}

// A full buffer whose tail ties the incoming score keeps the existing
// entries.
func TestRankingBufferFullTieKeepsExisting(t *testing.T) {
	b := NewRankingBuffer(2, nil)
	b.Insert("movie:1", 8.0)
	b.Insert("movie:2", 8.0)
	b.Insert("movie:3", 8.0)

	got := b.Entries()
	if len(got) != 2 || got[0].Key != "movie:1" || got[1].Key != "movie:2" {
		t.Errorf("entries = %+v, want movie:1 then movie:2", got)
	}
}

func TestNewRankingBufferTruncatesExisting(t *testing.T) {
	existing := []ScoredRef{
		{Key: "movie:1", Score: 9},
		{Key: "movie:2", Score: 8},
		{Key: "movie:3", Score: 7},
	}
	b := NewRankingBuffer(2, existing)
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
}

func TestNewRankingBufferDefaultCap(t *testing.T) {
	b := NewRankingBuffer(0, nil)
	for i := 0; i < DefaultRankingCap+20; i++ {
		b.Insert("movie:x", float64(i))
	}
	if b.Len() != DefaultRankingCap {
		t.Errorf("Len = %d, want %d", b.Len(), DefaultRankingCap)
	}
}
