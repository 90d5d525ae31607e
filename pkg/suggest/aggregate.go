package suggest

import (
	"sort"

	"github.com/bastiangx/mocword/internal/utils"
	"github.com/bastiangx/mocword/pkg/corpus"
)

// Suggestion is one ranked result.
type Suggestion struct {
	Word  string
	Order int
	ID    int64
}

// Aggregate orders matches by descending order then ascending id, keeps the
// first occurrence of every word and truncates to limit. A limit <= 0
// yields no results. matches is not modified.
func Aggregate(matches []corpus.Match, limit int) []Suggestion {
	if limit <= 0 || len(matches) == 0 {
		return []Suggestion{}
	}
	sorted := make([]corpus.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order > sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	filter := utils.NewSuggestionFilter(len(sorted))
	out := make([]Suggestion, 0, min(limit, len(sorted)))
	for _, m := range sorted {
		if !filter.ShouldInclude(m.Word) {
			continue
		}
		out = append(out, Suggestion{Word: m.Word, Order: m.Order, ID: m.ID})
		if len(out) == limit {
			break
		}
	}
	return out
}

// Words returns the word of every suggestion.
func Words(s []Suggestion) []string {
	out := make([]string, len(s))
	for i := range s {
		out[i] = s[i].Word
	}
	return out
}
