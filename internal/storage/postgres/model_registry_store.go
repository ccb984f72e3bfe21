package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// ModelRegistryStore implements storage.ModelRegistryStore using PostgreSQL.
type ModelRegistryStore struct {
	pool *Pool
}

// NewModelRegistryStore creates a new ModelRegistryStore.
func NewModelRegistryStore(pool *Pool) *ModelRegistryStore {
	return &ModelRegistryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ModelRegistryStore = (*ModelRegistryStore)(nil)

// Insert adds a new model version. Returns ErrDuplicateKey if the version exists.
func (s *ModelRegistryStore) Insert(ctx context.Context, m *domain.ModelVersion) error {
	if m == nil || m.Version == "" || m.ModelPath == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO model_registry (
			model_version, model_path, rmse, mae, mape, r2, training_samples, data_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		m.Version,
		m.ModelPath,
		m.Metrics.RMSE,
		m.Metrics.MAE,
		m.Metrics.MAPE,
		m.Metrics.R2,
		m.TrainingSamples,
		m.DataSource,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert model version: %w", err)
	}

	return nil
}

// UpsertMetrics overwrites the metric snapshot for an existing version.
// Recomputing metrics for the same version overwrites rather than duplicates.
func (s *ModelRegistryStore) UpsertMetrics(ctx context.Context, version string, metrics domain.EvalMetrics) error {
	query := `
		UPDATE model_registry
		SET rmse = $2, mae = $3, mape = $4, r2 = $5
		WHERE model_version = $1
	`

	tag, err := s.pool.Exec(ctx, query, version, metrics.RMSE, metrics.MAE, metrics.MAPE, metrics.R2)
	if err != nil {
		return fmt.Errorf("upsert model metrics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// GetByVersion retrieves a model by version id.
func (s *ModelRegistryStore) GetByVersion(ctx context.Context, version string) (*domain.ModelVersion, error) {
	query := registrySelect + ` WHERE model_version = $1`

	return scanModelVersion(s.pool.QueryRow(ctx, query, version))
}

// Latest retrieves the row with the most recent creation time.
func (s *ModelRegistryStore) Latest(ctx context.Context) (*domain.ModelVersion, error) {
	query := registrySelect + ` ORDER BY created_at DESC, id DESC LIMIT 1`

	return scanModelVersion(s.pool.QueryRow(ctx, query))
}

// ListAll retrieves all versions ordered by creation time DESC.
func (s *ModelRegistryStore) ListAll(ctx context.Context) ([]*domain.ModelVersion, error) {
	query := registrySelect + ` ORDER BY created_at DESC, id DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list model versions: %w", err)
	}
	defer rows.Close()

	var result []*domain.ModelVersion
	for rows.Next() {
		rec, err := scanModelVersionRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model version rows: %w", err)
	}

	return result, nil
}

// ListVersionIDs retrieves every version id, unordered.
func (s *ModelRegistryStore) ListVersionIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT model_version FROM model_registry`)
	if err != nil {
		return nil, fmt.Errorf("list version ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan version id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate version id rows: %w", err)
	}

	return ids, nil
}

// Delete removes a version from the registry. Administrative only.
func (s *ModelRegistryStore) Delete(ctx context.Context, version string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM model_registry WHERE model_version = $1`, version)
	if err != nil {
		return fmt.Errorf("delete model version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

const registrySelect = `
	SELECT id, model_version, model_path, rmse, mae, mape, r2,
	       training_samples, data_source, created_at
	FROM model_registry
`

// scanModelVersion scans a single row, mapping no-rows to ErrNotFound.
func scanModelVersion(row pgx.Row) (*domain.ModelVersion, error) {
	rec, err := scanModelVersionRow(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func scanModelVersionRow(row pgx.Row) (*domain.ModelVersion, error) {
	var rec domain.ModelVersion

	err := row.Scan(
		&rec.ID,
		&rec.Version,
		&rec.ModelPath,
		&rec.Metrics.RMSE,
		&rec.Metrics.MAE,
		&rec.Metrics.MAPE,
		&rec.Metrics.R2,
		&rec.TrainingSamples,
		&rec.DataSource,
		&rec.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan model version row: %w", err)
	}

	return &rec, nil
}
