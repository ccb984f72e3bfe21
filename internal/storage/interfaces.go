package storage

import (
	"context"
	"time"

	"petrol-price-lab/internal/domain"
)

// RawPetrolPriceStore provides access to raw_petrol_prices storage.
// The date is the unique key; backends enforce uniqueness atomically
// (insert-if-absent), never via a separate existence check.
type RawPetrolPriceStore interface {
	// Insert adds a new price point. Returns ErrDuplicateKey if a record
	// for the date already exists; the existing row is left untouched.
	Insert(ctx context.Context, p *domain.RawPetrolPrice) error

	// GetByDateRange retrieves records within [start, end] (inclusive),
	// ordered by date ASC. Zero start/end mean unbounded.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.RawPetrolPrice, error)

	// ExistingDates returns the set of dates already present within
	// [start, end] (inclusive).
	ExistingDates(ctx context.Context, start, end time.Time) (map[time.Time]struct{}, error)
}

// RawExogenousDataStore provides access to raw_exogenous_data storage.
// Same uniqueness-by-date rule as RawPetrolPriceStore.
type RawExogenousDataStore interface {
	// Insert adds a new exogenous point. Returns ErrDuplicateKey if a
	// record for the date already exists.
	Insert(ctx context.Context, e *domain.RawExogenousData) error

	// GetByDateRange retrieves records within [start, end] (inclusive),
	// ordered by date ASC. Zero start/end mean unbounded.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.RawExogenousData, error)

	// ExistingDates returns the set of dates already present within
	// [start, end] (inclusive).
	ExistingDates(ctx context.Context, start, end time.Time) (map[time.Time]struct{}, error)
}

// FeatureStore provides access to processed_features storage.
// Feature rows are recomputed wholesale on each run and upserted by date.
type FeatureStore interface {
	// Upsert writes rows keyed by date: existing dates are updated in
	// place, new dates inserted. The whole batch commits or rolls back
	// as one unit. Returns the number of rows written.
	Upsert(ctx context.Context, rows []*domain.FeatureRow) (int, error)

	// GetByDateRange retrieves rows within [start, end] (inclusive),
	// ordered by date ASC. Zero start/end mean unbounded.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.FeatureRow, error)

	// Latest retrieves the single most recent row by date.
	// Returns ErrNotFound if the table is empty.
	Latest(ctx context.Context) (*domain.FeatureRow, error)
}

// ModelRegistryStore provides access to model_registry storage.
type ModelRegistryStore interface {
	// Insert adds a new model version. Returns ErrDuplicateKey if the
	// version already exists.
	Insert(ctx context.Context, m *domain.ModelVersion) error

	// UpsertMetrics overwrites the metric snapshot for an existing
	// version. Idempotent: re-running for the same version replaces
	// rather than duplicates. Returns ErrNotFound if the version is
	// not registered.
	UpsertMetrics(ctx context.Context, version string, metrics domain.EvalMetrics) error

	// GetByVersion retrieves a model by version id.
	// Returns ErrNotFound if not exists.
	GetByVersion(ctx context.Context, version string) (*domain.ModelVersion, error)

	// Latest retrieves the row with the most recent creation time.
	// Returns ErrNotFound if the registry is empty.
	Latest(ctx context.Context) (*domain.ModelVersion, error)

	// ListAll retrieves all versions ordered by creation time DESC.
	ListAll(ctx context.Context) ([]*domain.ModelVersion, error)

	// ListVersionIDs retrieves every version id, unordered.
	ListVersionIDs(ctx context.Context) ([]string, error)

	// Delete removes a version from the registry. Administrative only.
	// Returns ErrNotFound if the version does not exist.
	Delete(ctx context.Context, version string) error
}

// PredictionLogStore provides access to prediction_logs storage.
// Entries are write-once audit records; there is no update path.
type PredictionLogStore interface {
	// Insert appends a new log entry.
	Insert(ctx context.Context, l *domain.PredictionLog) error

	// Recent retrieves the most recent entries ordered by request time
	// DESC, at most limit rows.
	Recent(ctx context.Context, limit int) ([]*domain.PredictionLog, error)
}
