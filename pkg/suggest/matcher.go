package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/charmbracelet/log"
)

// ErrEmptyQuery is returned for a predict query without any context word.
var ErrEmptyQuery = errors.New("empty query")

// Matcher runs the backoff cascade against a store: the longest context is
// tried first, then the oldest word is dropped until the context runs out.
type Matcher struct {
	store  corpus.Store
	strict bool
}

// NewMatcher returns a matcher over store. In strict mode only the longest
// available order is queried.
func NewMatcher(store corpus.Store, strict bool) *Matcher {
	return &Matcher{store: store, strict: strict}
}

// Match runs q and returns the tagged matches in attempt order, highest
// order first. perOrder caps every single lookup; <= 0 means no cap.
func (m *Matcher) Match(ctx context.Context, q Query, perOrder int) ([]corpus.Match, error) {
	if q.Mode == ModePredict {
		return m.Predict(ctx, q.Context, perOrder)
	}
	return m.Search(ctx, q.Context, q.Fragment, perOrder)
}

// Search completes fragment at every order from len(history)+1 down to 1.
func (m *Matcher) Search(ctx context.Context, history []string, fragment string, perOrder int) ([]corpus.Match, error) {
	history = tail(history, corpus.MaxOrder-1)
	var out []corpus.Match
	for n := len(history) + 1; n >= 1; n-- {
		found, err := m.store.MatchPrefix(ctx, history[len(history)-(n-1):], fragment, perOrder)
		if err != nil {
			return nil, fmt.Errorf("search order %d: %w", n, err)
		}
		log.Debugf("search order %d %q: %d matches", n, fragment, len(found))
		out = append(out, found...)
		if m.strict {
			break
		}
	}
	return out, nil
}

// Predict proposes next words at every order from len(history)+1 down to 2.
// At least one context word is required.
func (m *Matcher) Predict(ctx context.Context, history []string, perOrder int) ([]corpus.Match, error) {
	history = tail(history, corpus.MaxOrder-1)
	if len(history) == 0 {
		return nil, ErrEmptyQuery
	}
	var out []corpus.Match
	for n := len(history) + 1; n >= 2; n-- {
		found, err := m.store.MatchNext(ctx, history[len(history)-(n-1):], perOrder)
		if err != nil {
			return nil, fmt.Errorf("predict order %d: %w", n, err)
		}
		log.Debugf("predict order %d: %d matches", n, len(found))
		out = append(out, found...)
		if m.strict {
			break
		}
	}
	return out, nil
}

// tail returns the last n words of s.
func tail(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
