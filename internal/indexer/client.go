package indexer

import "context"

// Client queries one remote indexer for one query string. Implementations
// bound each call with their own timeout and know nothing about other
// indexers; a failing client must never block or fail the others, so the
// caller treats any error as an empty result.
type Client interface {
	// Name tags candidates with the indexer that produced them.
	Name() string

	// Search fetches and normalizes listings for a single query.
	Search(ctx context.Context, query string) ([]Candidate, error)

	// Configured reports whether the client has what it needs to run.
	// Unconfigured clients are skipped entirely, which is not an error.
	Configured() bool
}
