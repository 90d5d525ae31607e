package suggest

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bastiangx/mocword/pkg/corpus"
)

// Mode selects the lookup a query runs.
type Mode int

const (
	// ModeSearch completes the trailing fragment.
	ModeSearch Mode = iota
	// ModePredict proposes whole next words.
	ModePredict
)

func (m Mode) String() string {
	if m == ModePredict {
		return "predict"
	}
	return "search"
}

// WindowSize is the number of slots in a query window.
const WindowSize = corpus.MaxOrder

// Query is a normalized input line.
type Query struct {
	// Window is [w-4, w-3, w-2, w-1, w0], left-padded with "".
	Window [WindowSize]string
	// Context holds the real words before the trailing slot, oldest first.
	// Padding never appears here.
	Context []string
	// Fragment is the partial word to complete; empty in predict mode.
	Fragment string
	Mode     Mode
}

// ParseQuery splits line on runs of whitespace. A line ending in whitespace,
// or one with no tokens at all, is a predict query whose trailing slot is
// empty. Only the last WindowSize slots are kept.
func ParseQuery(line string) Query {
	tokens := strings.Fields(line)
	predict := len(tokens) == 0
	if r, _ := utf8.DecodeLastRuneInString(line); unicode.IsSpace(r) {
		predict = true
	}
	if predict {
		tokens = append(tokens, "")
	}
	if len(tokens) > WindowSize {
		tokens = tokens[len(tokens)-WindowSize:]
	}

	var q Query
	copy(q.Window[WindowSize-len(tokens):], tokens)
	q.Context = append([]string(nil), tokens[:len(tokens)-1]...)
	q.Fragment = tokens[len(tokens)-1]
	if predict {
		q.Mode = ModePredict
	}
	return q
}

// Key identifies the query for caching.
func (q Query) Key() string {
	return fmt.Sprintf("%s%q%q", q.Mode, q.Context, q.Fragment)
}
