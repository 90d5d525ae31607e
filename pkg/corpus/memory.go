package corpus

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// MemoryStore serves lookups from tries held in memory. It is immutable once
// built and safe for concurrent readers.
//
// The vocabulary trie maps word text to word id. For every order k >= 2 each
// prefix entry owns a child trie mapping suffix word text to the k-gram id, so
// a prefix match is a subtree walk of one child trie.
type MemoryStore struct {
	vocab    *patricia.Trie
	children [MaxOrder + 1]map[int64]*patricia.Trie
	stats    Stats
}

// NewMemoryStore builds a store from snap. Every reference in the snapshot
// must resolve, otherwise ErrMalformed is returned.
func NewMemoryStore(snap *Snapshot) (*MemoryStore, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrStoreConfig)
	}
	ms := &MemoryStore{vocab: patricia.NewTrie()}
	words := make(map[int64]string, len(snap.Words))
	for _, w := range snap.Words {
		if _, dup := words[w.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate word id %d", ErrMalformed, w.ID)
		}
		if ms.vocab.Get(patricia.Prefix(w.Text)) != nil {
			return nil, fmt.Errorf("%w: duplicate word %q", ErrMalformed, w.Text)
		}
		words[w.ID] = w.Text
		ms.vocab.Insert(patricia.Prefix(w.Text), w.ID)
	}
	ms.stats.Counts[1] = len(words)

	// ids of the previous order, used to check prefix references
	prev := make(map[int64]struct{}, len(words))
	for id := range words {
		prev[id] = struct{}{}
	}
	for k := 2; k <= MaxOrder; k++ {
		grams := snap.order(k)
		ms.children[k] = make(map[int64]*patricia.Trie)
		cur := make(map[int64]struct{}, len(grams))
		for _, g := range grams {
			if _, dup := cur[g.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate %s id %d", ErrMalformed, tables[k], g.ID)
			}
			if _, ok := prev[g.Prefix]; !ok {
				return nil, fmt.Errorf("%w: %s entry %d has dangling prefix %d", ErrMalformed, tables[k], g.ID, g.Prefix)
			}
			text, ok := words[g.Suffix]
			if !ok {
				return nil, fmt.Errorf("%w: %s entry %d has dangling suffix %d", ErrMalformed, tables[k], g.ID, g.Suffix)
			}
			cur[g.ID] = struct{}{}
			ms.addChild(k, g.Prefix, text, g.ID)
		}
		ms.stats.Counts[k] = len(grams)
		prev = cur
	}
	log.Debugf("Built memory corpus: %d entries", ms.stats.Total())
	return ms, nil
}

// addChild records a k-gram under its prefix. Duplicate (prefix, suffix)
// pairs keep the lowest id.
func (ms *MemoryStore) addChild(order int, prefix int64, word string, id int64) {
	t, ok := ms.children[order][prefix]
	if !ok {
		t = patricia.NewTrie()
		ms.children[order][prefix] = t
	}
	key := patricia.Prefix(word)
	if existing := t.Get(key); existing != nil && existing.(int64) <= id {
		return
	}
	t.Set(key, id)
}

// ResolveExact implements Store.
func (ms *MemoryStore) ResolveExact(_ context.Context, words []string) (int64, bool, error) {
	if err := checkLen(len(words), 1, MaxOrder); err != nil {
		return 0, false, err
	}
	item := ms.vocab.Get(patricia.Prefix(words[0]))
	if item == nil {
		return 0, false, nil
	}
	id := item.(int64)
	for k := 2; k <= len(words); k++ {
		t, ok := ms.children[k][id]
		if !ok {
			return 0, false, nil
		}
		item = t.Get(patricia.Prefix(words[k-1]))
		if item == nil {
			return 0, false, nil
		}
		id = item.(int64)
	}
	return id, true, nil
}

// MatchPrefix implements Store.
func (ms *MemoryStore) MatchPrefix(ctx context.Context, history []string, fragment string, limit int) ([]Match, error) {
	if err := checkLen(len(history), 0, MaxOrder-1); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return collect(ms.vocab, 1, fragment, limit)
	}
	prefixID, ok, err := ms.ResolveExact(ctx, history)
	if err != nil || !ok {
		return nil, err
	}
	order := len(history) + 1
	t, ok := ms.children[order][prefixID]
	if !ok {
		return nil, nil
	}
	return collect(t, order, fragment, limit)
}

// MatchNext implements Store.
func (ms *MemoryStore) MatchNext(ctx context.Context, history []string, limit int) ([]Match, error) {
	if err := checkLen(len(history), 1, MaxOrder-1); err != nil {
		return nil, err
	}
	prefixID, ok, err := ms.ResolveExact(ctx, history)
	if err != nil || !ok {
		return nil, err
	}
	order := len(history) + 1
	t, ok := ms.children[order][prefixID]
	if !ok {
		return nil, nil
	}
	return collect(t, order, "", limit)
}

// collect walks every key of t starting with fragment and returns the
// matches in ascending id.
func collect(t *patricia.Trie, order int, fragment string, limit int) ([]Match, error) {
	var out []Match
	visit := func(p patricia.Prefix, item patricia.Item) error {
		out = append(out, Match{Order: order, ID: item.(int64), Word: string(p)})
		return nil
	}
	var err error
	if fragment == "" {
		err = t.Visit(visit)
	} else {
		err = t.VisitSubtree(patricia.Prefix(fragment), visit)
	}
	if err != nil {
		return nil, fmt.Errorf("walk order %d: %w", order, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return capMatches(out, limit), nil
}

// Stats implements Store.
func (ms *MemoryStore) Stats(context.Context) (Stats, error) {
	return ms.stats, nil
}

// Close implements Store. There is nothing to release.
func (ms *MemoryStore) Close() error {
	return nil
}
