package suggest

import (
	"context"
	"fmt"
	"time"

	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/charmbracelet/log"
)

// Options configures an Engine.
type Options struct {
	// Strict disables backoff: only the longest available order is queried.
	Strict bool
	// CacheSize is the number of results kept in memory; 0 disables caching.
	CacheSize int
}

// Engine ties the query normalizer, the matcher and the aggregator together.
// It is safe for concurrent use when its store is.
type Engine struct {
	store   corpus.Store
	backoff *Matcher
	strict  *Matcher
	opts    Options
	cache   *ResultCache
}

var _ ICompleter = (*Engine)(nil)

func NewEngine(store corpus.Store, opts Options) *Engine {
	e := &Engine{
		store:   store,
		backoff: NewMatcher(store, false),
		strict:  NewMatcher(store, true),
		opts:    opts,
	}
	if opts.CacheSize > 0 {
		e.cache = NewResultCache(opts.CacheSize)
	}
	return e
}

// Strict reports whether the engine runs in strict mode by default.
func (e *Engine) Strict() bool {
	return e.opts.Strict
}

// Complete parses line and returns up to limit ranked words.
func (e *Engine) Complete(ctx context.Context, line string, limit int) ([]string, error) {
	s, err := e.Suggest(ctx, ParseQuery(line), limit)
	if err != nil {
		return nil, err
	}
	return Words(s), nil
}

// Suggest runs q in the engine's default mode.
func (e *Engine) Suggest(ctx context.Context, q Query, limit int) ([]Suggestion, error) {
	return e.SuggestMode(ctx, q, limit, e.opts.Strict)
}

// SuggestMode runs q with an explicit strictness.
func (e *Engine) SuggestMode(ctx context.Context, q Query, limit int, strict bool) ([]Suggestion, error) {
	if limit <= 0 {
		return []Suggestion{}, nil
	}
	key := fmt.Sprintf("%s/%d/%t", q.Key(), limit, strict)
	if e.cache != nil {
		if s, ok := e.cache.Get(key); ok {
			return s, nil
		}
	}

	start := time.Now()
	m := e.backoff
	if strict {
		m = e.strict
	}
	// Every order yields distinct words, so limit matches per order always
	// cover the final top limit after merging.
	matches, err := m.Match(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	s := Aggregate(matches, limit)
	log.Debugf("%s %q: %d matches, %d results in %v", q.Mode, q.Fragment, len(matches), len(s), time.Since(start))

	if e.cache != nil {
		e.cache.Put(key, s)
	}
	return s, nil
}

// Stats returns entry counts per order and cache counters.
func (e *Engine) Stats(ctx context.Context) (map[string]int, error) {
	st, err := e.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[string]int{"totalEntries": st.Total()}
	for k := 1; k <= corpus.MaxOrder; k++ {
		stats[corpus.TableName(k)] = st.Counts[k]
	}
	if e.cache != nil {
		for k, v := range e.cache.Stats() {
			stats[k] = v
		}
	}
	return stats, nil
}
