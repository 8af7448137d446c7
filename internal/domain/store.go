package domain

import "context"

// EquityStore mirrors appended equity samples into a queryable store.
// The file ledger remains the source of truth; store failures must never
// block the hedge loop.
type EquityStore interface {
	Insert(ctx context.Context, instance int, asset string, sample EquitySample) error
	ListRecent(ctx context.Context, instance int, asset string, limit int) ([]EquitySample, error)
}

// StatusCache publishes the engine's live state for external consumers.
type StatusCache interface {
	SetSample(ctx context.Context, instance int, asset string, sample EquitySample) error
	SetDiscrepancy(ctx context.Context, instance int, asset string, discrepancy float64) error
}

// EquityBus is a capped stream of appended equity samples.
type EquityBus interface {
	Publish(ctx context.Context, instance int, asset string, sample EquitySample) error
	Subscribe(ctx context.Context, fn func(EquitySample)) error
}
