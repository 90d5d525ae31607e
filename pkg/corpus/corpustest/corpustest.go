// Package corpustest builds small corpora for tests.
package corpustest

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/stretchr/testify/require"
)

type gramKey struct {
	prefix int64
	suffix int64
}

// Builder assembles a Snapshot. Ids are handed out in insertion order,
// starting at 1 in every table.
type Builder struct {
	snap  corpus.Snapshot
	words map[string]int64
	grams [corpus.MaxOrder + 1]map[gramKey]int64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	b := &Builder{words: make(map[string]int64)}
	for k := 2; k <= corpus.MaxOrder; k++ {
		b.grams[k] = make(map[gramKey]int64)
	}
	return b
}

// Words adds vocabulary entries that are not present yet.
func (b *Builder) Words(words ...string) *Builder {
	for _, w := range words {
		b.word(w)
	}
	return b
}

func (b *Builder) word(text string) int64 {
	if id, ok := b.words[text]; ok {
		return id
	}
	id := int64(len(b.snap.Words) + 1)
	b.snap.Words = append(b.snap.Words, corpus.Word{ID: id, Text: text})
	b.words[text] = id
	return id
}

// Phrase adds the chain of entries representing words (2..5 of them).
func (b *Builder) Phrase(words ...string) *Builder {
	if len(words) > corpus.MaxOrder {
		panic("corpustest: phrase longer than MaxOrder")
	}
	if len(words) == 0 {
		return b
	}
	id := b.word(words[0])
	for k := 2; k <= len(words); k++ {
		key := gramKey{prefix: id, suffix: b.word(words[k-1])}
		if existing, ok := b.grams[k][key]; ok {
			id = existing
			continue
		}
		id = int64(len(b.snap.Grams[k-2]) + 1)
		b.snap.Grams[k-2] = append(b.snap.Grams[k-2], corpus.Gram{ID: id, Prefix: key.prefix, Suffix: key.suffix})
		b.grams[k][key] = id
	}
	return b
}

// Gram appends a raw k-gram without any checks, for building broken corpora.
func (b *Builder) Gram(order int, g corpus.Gram) *Builder {
	b.snap.Grams[order-2] = append(b.snap.Grams[order-2], g)
	return b
}

// Snapshot returns a copy of what has been built so far.
func (b *Builder) Snapshot() *corpus.Snapshot {
	out := &corpus.Snapshot{Words: append([]corpus.Word(nil), b.snap.Words...)}
	for i := range b.snap.Grams {
		out.Grams[i] = append([]corpus.Gram(nil), b.snap.Grams[i]...)
	}
	return out
}

// Build turns space separated phrases into a snapshot.
func Build(phrases ...string) *corpus.Snapshot {
	b := NewBuilder()
	for _, p := range phrases {
		b.Phrase(strings.Fields(p)...)
	}
	return b.Snapshot()
}

// SQLiteFile writes snap to a database in a temp dir and returns its path.
func SQLiteFile(t testing.TB, snap *corpus.Snapshot) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.db")
	require.NoError(t, corpus.CreateSQLite(context.Background(), path, snap))
	return path
}

// OpenSQLite writes snap to a temp database and opens it read-only.
func OpenSQLite(t testing.TB, snap *corpus.Snapshot) *corpus.SQLiteStore {
	t.Helper()
	s, err := corpus.OpenSQLite(context.Background(), SQLiteFile(t, snap))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// Memory builds a memory store from snap.
func Memory(t testing.TB, snap *corpus.Snapshot) *corpus.MemoryStore {
	t.Helper()
	s, err := corpus.NewMemoryStore(snap)
	require.NoError(t, err)
	return s
}

// Stores returns both backends over the same data, keyed by name.
func Stores(t testing.TB, snap *corpus.Snapshot) map[string]corpus.Store {
	t.Helper()
	return map[string]corpus.Store{
		"sqlite": OpenSQLite(t, snap),
		"memory": Memory(t, snap),
	}
}
