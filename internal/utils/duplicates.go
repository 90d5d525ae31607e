package utils

// SuggestionFilter drops repeated words while results from several n-gram
// orders are merged. Comparison is case-sensitive: "The" and "the" are
// different words.
type SuggestionFilter struct {
	seenWords map[string]struct{}
}

// NewSuggestionFilter creates a filter sized for about n words.
func NewSuggestionFilter(n int) *SuggestionFilter {
	return &SuggestionFilter{seenWords: make(map[string]struct{}, n)}
}

// ShouldInclude reports whether word is seen for the first time and records it.
func (f *SuggestionFilter) ShouldInclude(word string) bool {
	if _, seen := f.seenWords[word]; seen {
		return false
	}
	f.seenWords[word] = struct{}{}
	return true
}

// Len returns the number of distinct words seen.
func (f *SuggestionFilter) Len() int {
	return len(f.seenWords)
}
