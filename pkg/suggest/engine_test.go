package suggest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/bastiangx/mocword/pkg/corpus/corpustest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catCorpus holds the unigrams the, cat, cats, car and the bigram "the cat".
func catCorpus() *corpus.Snapshot {
	return corpustest.NewBuilder().
		Words("the", "cat", "cats", "car").
		Phrase("the", "cat").
		Snapshot()
}

func richCorpus() *corpus.Snapshot {
	return corpustest.NewBuilder().
		Words("the", "cat", "cats", "car", "a_b", "axb", "The").
		Phrase("the", "cat", "sat", "on", "the").
		Phrase("the", "car").
		Phrase("cat", "sat").
		Phrase("sat", "down").
		Phrase("sat", "on").
		Phrase("on", "the").
		Phrase("on", "a").
		Phrase("The", "cats").
		Snapshot()
}

func eachEngine(t *testing.T, snap *corpus.Snapshot, opts Options, fn func(t *testing.T, e *Engine)) {
	for name, s := range corpustest.Stores(t, snap) {
		t.Run(name, func(t *testing.T) {
			fn(t, NewEngine(s, opts))
		})
	}
}

func TestCompleteExamples(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, catCorpus(), Options{}, func(t *testing.T, e *Engine) {
		got, err := e.Complete(ctx, "the ca", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat", "cats", "car"}, got)

		got, err = e.Complete(ctx, "the ", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat"}, got)

		s, err := e.Suggest(ctx, ParseQuery("the ca"), 10)
		require.NoError(t, err)
		require.Len(t, s, 3)
		assert.Equal(t, Suggestion{Word: "cat", Order: 2, ID: 1}, s[0])
		assert.Equal(t, Suggestion{Word: "cats", Order: 1, ID: 3}, s[1])
		assert.Equal(t, Suggestion{Word: "car", Order: 1, ID: 4}, s[2])
	})
}

func TestCompleteSearch(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, richCorpus(), Options{}, func(t *testing.T, e *Engine) {
		tests := []struct {
			line string
			want []string
		}{
			{"ca", []string{"cat", "cats", "car"}},
			{"the c", []string{"cat", "car", "cats"}},
			{"the cat s", []string{"sat"}},
			{"x the cat sat o", []string{"on"}},
			{"dog ca", []string{"cat", "cats", "car"}},
			{"a_", []string{"a_b"}},
			{"Th", []string{"The"}},
			{"zzz", []string{}},
		}
		for _, tt := range tests {
			got, err := e.Complete(ctx, tt.line, 10)
			require.NoError(t, err, tt.line)
			assert.Equal(t, tt.want, got, tt.line)
		}
	})
}

func TestCompletePredict(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, richCorpus(), Options{}, func(t *testing.T, e *Engine) {
		tests := []struct {
			line string
			want []string
		}{
			{"the ", []string{"cat", "car"}},
			{"sat ", []string{"down", "on"}},
			{"cat sat ", []string{"down", "on"}},
			{"the cat sat on ", []string{"the", "a"}},
			{"on ", []string{"the", "a"}},
			{"The ", []string{"cats"}},
			{"dog ", []string{}},
		}
		for _, tt := range tests {
			got, err := e.Complete(ctx, tt.line, 10)
			require.NoError(t, err, tt.line)
			assert.Equal(t, tt.want, got, tt.line)
		}
	})
}

func TestPredictFallbackCompleteness(t *testing.T) {
	snap := corpustest.NewBuilder().
		Words("c1", "c2").
		Phrase("c3", "c4").
		Phrase("c4", "w").
		Phrase("c4", "v").
		Snapshot()
	eachEngine(t, snap, Options{}, func(t *testing.T, e *Engine) {
		got, err := e.Complete(context.Background(), "c1 c2 c3 c4 ", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"w", "v"}, got)
	})
}

func TestDeduplicationKeepsHigherOrder(t *testing.T) {
	snap := corpustest.NewBuilder().
		Phrase("d", "x").
		Phrase("d", "e").
		Phrase("a", "b", "c", "d", "e").
		Snapshot()
	eachEngine(t, snap, Options{}, func(t *testing.T, e *Engine) {
		s, err := e.Suggest(context.Background(), ParseQuery("a b c d "), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"e", "x"}, Words(s))
		assert.Equal(t, 5, s[0].Order)
		assert.Equal(t, 2, s[1].Order)

		s, err = e.Suggest(context.Background(), ParseQuery("a b c d e"), 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"e"}, Words(s))
		assert.Equal(t, 5, s[0].Order)
	})
}

func TestLimitEnforcement(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, richCorpus(), Options{}, func(t *testing.T, e *Engine) {
		all, err := e.Complete(ctx, "the ", 100)
		require.NoError(t, err)
		total := len(all)
		require.Equal(t, 2, total)

		for limit := -1; limit <= total+2; limit++ {
			got, err := e.Complete(ctx, "the ", limit)
			require.NoError(t, err)
			assert.Len(t, got, max(0, min(limit, total)), "limit %d", limit)
		}

		search, err := e.Complete(ctx, "", 100)
		require.ErrorIs(t, err, ErrEmptyQuery)
		assert.Nil(t, search)

		got, err := e.Complete(ctx, "the c", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat", "car"}, got)

		got, err = e.Complete(ctx, "the c", 3)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat", "car", "cats"}, got)
	})
}

func TestOrderingStability(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, richCorpus(), Options{}, func(t *testing.T, e *Engine) {
		for _, line := range []string{"the c", "sat ", "ca", "the cat sat on "} {
			first, err := e.Complete(ctx, line, 10)
			require.NoError(t, err)
			for i := 0; i < 5; i++ {
				again, err := e.Complete(ctx, line, 10)
				require.NoError(t, err)
				assert.Equal(t, first, again, line)
			}
		}
	})
}

func TestStrictMode(t *testing.T) {
	ctx := context.Background()
	eachEngine(t, richCorpus(), Options{Strict: true}, func(t *testing.T, e *Engine) {
		assert.True(t, e.Strict())

		got, err := e.Complete(ctx, "the c", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"cat", "car"}, got)

		got, err = e.Complete(ctx, "dog ca", 10)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = e.Complete(ctx, "the cat sat on ", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"the"}, got)

		got, err = e.Complete(ctx, "x cat sat ", 10)
		require.NoError(t, err)
		assert.Empty(t, got)

		s, err := e.SuggestMode(ctx, ParseQuery("x cat sat "), 10, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"down", "on"}, Words(s))
	})
}

func TestEmptyQuery(t *testing.T) {
	eachEngine(t, catCorpus(), Options{}, func(t *testing.T, e *Engine) {
		for _, line := range []string{"", " ", "\t\n"} {
			_, err := e.Complete(context.Background(), line, 10)
			assert.ErrorIs(t, err, ErrEmptyQuery, "%q", line)
		}
	})
}

func TestMalformedStorePropagates(t *testing.T) {
	snap := corpustest.NewBuilder().
		Phrase("the", "cat").
		Gram(2, corpus.Gram{ID: 2, Prefix: 1, Suffix: 99}).
		Snapshot()
	e := NewEngine(corpustest.OpenSQLite(t, snap), Options{CacheSize: 8})

	_, err := e.Complete(context.Background(), "the ", 10)
	assert.ErrorIs(t, err, corpus.ErrMalformed)
	_, err = e.Complete(context.Background(), "the c", 10)
	assert.ErrorIs(t, err, corpus.ErrMalformed)

	// Failed requests are not cached, later requests still reach the store.
	_, err = e.Complete(context.Background(), "the ", 10)
	assert.ErrorIs(t, err, corpus.ErrMalformed)

	got, err := e.Complete(context.Background(), "c", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, got)
}

func TestEngineCache(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(corpustest.Memory(t, catCorpus()), Options{CacheSize: 4})

	first, err := e.Complete(ctx, "the ca", 10)
	require.NoError(t, err)
	second, err := e.Complete(ctx, "the ca", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = e.Complete(ctx, "the ca", 1)
	require.NoError(t, err)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["cacheHits"])
	assert.Equal(t, 2, stats["cacheMisses"])
	assert.Equal(t, 2, stats["cacheEntries"])
	assert.Equal(t, 4, stats["one_grams"])
	assert.Equal(t, 1, stats["two_grams"])
	assert.Equal(t, 5, stats["totalEntries"])
}

func TestEngineConcurrentReaders(t *testing.T) {
	ctx := context.Background()
	lines := []string{"the c", "sat ", "ca", "the cat sat on ", "The "}
	eachEngine(t, richCorpus(), Options{CacheSize: 2}, func(t *testing.T, e *Engine) {
		want := make(map[string][]string, len(lines))
		for _, line := range lines {
			got, err := e.Complete(ctx, line, 10)
			require.NoError(t, err)
			want[line] = got
		}

		var wg sync.WaitGroup
		errs := make(chan error, 8*len(lines))
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, line := range lines {
					got, err := e.Complete(ctx, line, 10)
					if err != nil {
						errs <- err
						continue
					}
					if fmt.Sprint(got) != fmt.Sprint(want[line]) {
						errs <- fmt.Errorf("%q: got %v, want %v", line, got, want[line])
					}
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Error(err)
		}
	})
}
