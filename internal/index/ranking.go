package index

import "sort"

// DefaultRankingCap bounds ranked entries unless configured otherwise.
const DefaultRankingCap = 100

// RankingBuffer maintains a bounded, descending-sorted list of scored record
// references. Equal scores keep the order in which they were inserted, so
// ties are stable in rebuild scan order. Inserts use an ordered insert with
// truncation rather than re-sorting the whole list.
type RankingBuffer struct {
	cap     int
	entries []ScoredRef
}

// NewRankingBuffer wraps an existing ranked entry (already sorted
// descending, as stored) in a buffer with the given cap. A cap of zero or
// less falls back to DefaultRankingCap.
func NewRankingBuffer(cap int, existing []ScoredRef) *RankingBuffer {
	if cap <= 0 {
		cap = DefaultRankingCap
	}
	entries := make([]ScoredRef, len(existing), len(existing)+1)
	copy(entries, existing)
	if len(entries) > cap {
		entries = entries[:cap]
	}
	return &RankingBuffer{cap: cap, entries: entries}
}

// Insert places (key, score) at its descending-order position and drops any
// overflow beyond the cap. Existing entries with the same score stay ahead
// of the new one.
func (b *RankingBuffer) Insert(key string, score float64) {
	if b.cap > 0 && len(b.entries) == b.cap && b.entries[len(b.entries)-1].Score >= score {
		return
	}
	pos := sort.Search(len(b.entries), func(i int) bool {
		return b.entries[i].Score < score
	})
	b.entries = append(b.entries, ScoredRef{})
	copy(b.entries[pos+1:], b.entries[pos:])
	b.entries[pos] = ScoredRef{Key: key, Score: score}
	if len(b.entries) > b.cap {
		b.entries = b.entries[:b.cap]
	}
}

// Len returns the number of buffered entries.
func (b *RankingBuffer) Len() int {
	return len(b.entries)
}

// Entries returns the buffered entries, sorted descending by score.
func (b *RankingBuffer) Entries() []ScoredRef {
	return b.entries
}
