package attendance

import "context"

// Store supplies the normalized attendance relation to the core. The core
// treats it as read-only; writes come from the ingest pipeline. Version
// increases on every write and feeds the network cache keys, so cached
// matrices built from stale data are never returned.
type Store interface {
	// StudentIDs returns every distinct student id in the dataset.
	StudentIDs(ctx context.Context) ([]string, error)
	// Days returns the distinct days that have at least one fact.
	Days(ctx context.Context) ([]string, error)
	// FactsForDay returns all facts recorded for the given day.
	FactsForDay(ctx context.Context, day string) ([]Fact, error)
	// Classes returns class metadata keyed by class id.
	Classes(ctx context.Context) (map[string]Class, error)
	// UpsertFact inserts or replaces one attendance fact.
	UpsertFact(ctx context.Context, fact Fact) error
	// UpsertClass inserts or replaces class metadata.
	UpsertClass(ctx context.Context, class Class) error
	// Version returns a counter that changes whenever the dataset changes.
	Version(ctx context.Context) (int64, error)
}
