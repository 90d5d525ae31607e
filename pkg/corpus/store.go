// Package corpus is the read-only n-gram store.
//
// A corpus holds words (order 1) and k-grams for k = 2..5. Every k-gram
// extends the word sequence of its prefix entry by one suffix word, so the
// tables form a chain that can be descended word by word from the left.
// Two backends implement Store: SQLiteStore reads the persisted tables and
// MemoryStore serves the same data from patricia tries.
package corpus

import (
	"context"
	"errors"
	"fmt"
)

// MaxOrder is the longest n-gram held by a corpus.
const MaxOrder = 5

var (
	// ErrMalformed reports a dangling chain reference or a corrupt row.
	ErrMalformed = errors.New("malformed corpus")
	// ErrInvalidOrder reports a lookup with a context length the store cannot serve.
	ErrInvalidOrder = errors.New("invalid n-gram order")
	// ErrStoreConfig reports a store that cannot be opened at all.
	ErrStoreConfig = errors.New("store configuration")
)

// Word is a vocabulary entry. Lower ids are more significant.
type Word struct {
	ID   int64  `msgpack:"i"`
	Text string `msgpack:"t"`
}

// Gram is a k-gram entry for k >= 2. Prefix points at a Word when k == 2 and
// at a (k-1)-gram otherwise; Suffix always points at a Word.
type Gram struct {
	ID     int64 `msgpack:"i"`
	Prefix int64 `msgpack:"p"`
	Suffix int64 `msgpack:"s"`
}

// Match is a word found at a given order. ID is the id of the matched entry
// at that order: the k-gram id for k >= 2, the word id for k == 1.
type Match struct {
	Order int
	ID    int64
	Word  string
}

// Stats holds entry counts, indexed by order (index 0 unused).
type Stats struct {
	Counts [MaxOrder + 1]int
}

// Total returns the number of entries across all orders.
func (s Stats) Total() int {
	total := 0
	for _, c := range s.Counts {
		total += c
	}
	return total
}

// Store is the lookup contract shared by all backends.
//
// Lookups at a single order return distinct words in ascending entry id.
// A limit <= 0 means no cap. Matching is case-sensitive.
type Store interface {
	// ResolveExact descends the chain matching each of 1..5 words exactly and
	// returns the id of the entry representing the whole sequence.
	ResolveExact(ctx context.Context, words []string) (int64, bool, error)
	// MatchPrefix returns words starting with fragment that follow history
	// (0..4 words) exactly, at order len(history)+1.
	MatchPrefix(ctx context.Context, history []string, fragment string, limit int) ([]Match, error)
	// MatchNext returns every word following history (1..4 words), at order
	// len(history)+1.
	MatchNext(ctx context.Context, history []string, limit int) ([]Match, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

func checkLen(n, lo, hi int) error {
	if n < lo || n > hi {
		return fmt.Errorf("%w: %d words, want %d..%d", ErrInvalidOrder, n, lo, hi)
	}
	return nil
}

// capMatches truncates m to limit when limit is positive.
func capMatches(m []Match, limit int) []Match {
	if limit > 0 && len(m) > limit {
		return m[:limit]
	}
	return m
}
