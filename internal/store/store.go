package store

import (
	"context"

	"github.com/jacklau/zippy/internal/primer"
)

// Store defines the storage operations used by the pipeline and commands.
// It is satisfied by *DB and can be replaced with a fake for testing.
type Store interface {
	// AddPrimer stores primers and their observed loci.
	AddPrimer(ctx context.Context, primers ...*primer.Primer) error

	// AddPair stores pairs together with their primers and an active status.
	AddPair(ctx context.Context, pairs ...*primer.Pair) error

	// Query returns active pairs for an interval, closest midpoint first.
	Query(ctx context.Context, iv primer.Interval) ([]*primer.Pair, error)

	// Blacklist marks a single pair as rejected.
	Blacklist(ctx context.Context, pairID, uniqueID string) error

	// Blacklisted lists rejected pairs.
	Blacklisted(ctx context.Context) ([]PairRecord, error)
}

// Compile-time check that *DB satisfies the Store interface.
var _ Store = (*DB)(nil)
