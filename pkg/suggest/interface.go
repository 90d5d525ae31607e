// Package suggest turns input lines into ranked completions and next-word
// predictions. It normalizes the line into a query, runs the backoff cascade
// against a corpus.Store and merges the per-order results.
package suggest

import "context"

// ICompleter defines the interface for completion engines
type ICompleter interface {
	// Complete returns the ranked words for a raw input line
	Complete(ctx context.Context, line string, limit int) ([]string, error)

	// Suggest runs an already parsed query
	Suggest(ctx context.Context, q Query, limit int) ([]Suggestion, error)

	// Stats returns counters about the corpus and the result cache
	Stats(ctx context.Context) (map[string]int, error)
}
