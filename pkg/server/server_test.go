package server

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bastiangx/mocword/pkg/config"
	"github.com/bastiangx/mocword/pkg/corpus"
	"github.com/bastiangx/mocword/pkg/corpus/corpustest"
	"github.com/bastiangx/mocword/pkg/suggest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func catEngine(t *testing.T) *suggest.Engine {
	snap := corpustest.NewBuilder().
		Words("the", "cat", "cats", "car").
		Phrase("the", "cat").
		Snapshot()
	return suggest.NewEngine(corpustest.Memory(t, snap), suggest.Options{})
}

// serve runs the server over the encoded messages and returns a decoder
// positioned after the ready message.
func serve(t *testing.T, c Completer, cfg *config.Config, msgs ...any) *msgpack.Decoder {
	t.Helper()
	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}
	require.NoError(t, NewServerWithIO(c, cfg, &in, &out).Start(context.Background()))

	dec := msgpack.NewDecoder(&out)
	var ready InfoResponse
	require.NoError(t, dec.Decode(&ready))
	assert.Equal(t, "ready", ready.Status)
	return dec
}

func boolPtr(b bool) *bool { return &b }

func TestServerComplete(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxLimit = 2
	dec := serve(t, catEngine(t), cfg,
		Request{ID: "r1", Query: "the ca", Limit: 2},
		Request{Query: "the "},
		Request{ID: "r3", Action: ActionComplete, Query: "ca", Limit: 1000},
		Request{ID: "r4", Query: "dog ca", Strict: boolPtr(true)},
	)

	var r1 CompletionResponse
	require.NoError(t, dec.Decode(&r1))
	assert.Equal(t, "r1", r1.ID)
	assert.Equal(t, []CompletionSuggestion{
		{Word: "cat", Rank: 1, Order: 2},
		{Word: "cats", Rank: 2, Order: 1},
	}, r1.Suggestions)
	assert.Equal(t, 2, r1.Count)
	assert.GreaterOrEqual(t, r1.TimeTaken, int64(0))

	var r2 CompletionResponse
	require.NoError(t, dec.Decode(&r2))
	_, err := uuid.Parse(r2.ID)
	assert.NoError(t, err, "generated id %q", r2.ID)
	assert.Equal(t, []CompletionSuggestion{{Word: "cat", Rank: 1, Order: 2}}, r2.Suggestions)

	var r3 CompletionResponse
	require.NoError(t, dec.Decode(&r3))
	assert.Equal(t, 2, r3.Count)

	var r4 CompletionResponse
	require.NoError(t, dec.Decode(&r4))
	assert.Equal(t, "r4", r4.ID)
	assert.Empty(t, r4.Suggestions)
	assert.Equal(t, 0, r4.Count)
}

func TestServerErrors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxQueryLen = 8
	dec := serve(t, catEngine(t), cfg,
		Request{ID: "long", Query: strings.Repeat("a", 9)},
		Request{ID: "empty", Query: "  "},
		Request{ID: "bogus", Action: "reload"},
		"not a request",
		Request{ID: "after", Query: "ca", Limit: 1},
	)

	for _, want := range []CompletionError{
		{ID: "long", Code: 400},
		{ID: "empty", Code: 400},
		{ID: "bogus", Code: 400},
		{ID: "", Code: 400},
	} {
		var got CompletionError
		require.NoError(t, dec.Decode(&got))
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Code, got.Code)
		assert.NotEmpty(t, got.Error)
	}

	var after CompletionResponse
	require.NoError(t, dec.Decode(&after))
	assert.Equal(t, "after", after.ID)
	assert.Equal(t, 1, after.Count)
}

func TestServerMalformedStore(t *testing.T) {
	snap := corpustest.NewBuilder().
		Phrase("the", "cat").
		Gram(2, corpus.Gram{ID: 2, Prefix: 1, Suffix: 99}).
		Snapshot()
	e := suggest.NewEngine(corpustest.OpenSQLite(t, snap), suggest.Options{})
	dec := serve(t, e, nil,
		Request{ID: "bad", Query: "the "},
		Request{ID: "good", Query: "ca"},
	)

	var bad CompletionError
	require.NoError(t, dec.Decode(&bad))
	assert.Equal(t, "bad", bad.ID)
	assert.Equal(t, 500, bad.Code)
	assert.Contains(t, bad.Error, "malformed")

	var good CompletionResponse
	require.NoError(t, dec.Decode(&good))
	assert.Equal(t, "good", good.ID)
	assert.Equal(t, 1, good.Count)
}

func TestServerInfoAndHealth(t *testing.T) {
	dec := serve(t, catEngine(t), nil,
		Request{ID: "i", Action: ActionInfo},
		Request{ID: "h", Action: ActionHealth},
	)

	var info InfoResponse
	require.NoError(t, dec.Decode(&info))
	assert.Equal(t, "i", info.ID)
	assert.Equal(t, "ok", info.Status)
	assert.Equal(t, 4, info.Counts["one_grams"])
	assert.Equal(t, 1, info.Counts["two_grams"])
	assert.Equal(t, 1, info.Counts["requests"])

	var health InfoResponse
	require.NoError(t, dec.Decode(&health))
	assert.Equal(t, "h", health.ID)
	assert.Equal(t, "ok", health.Status)
}

func TestServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := NewServerWithIO(catEngine(t), nil, strings.NewReader(""), &out).Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
