package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// FeatureStore implements storage.FeatureStore using PostgreSQL.
type FeatureStore struct {
	pool *Pool
}

// NewFeatureStore creates a new FeatureStore.
func NewFeatureStore(pool *Pool) *FeatureStore {
	return &FeatureStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FeatureStore = (*FeatureStore)(nil)

// Upsert writes rows keyed by date inside one transaction. The unit of
// work either fully commits or fully rolls back; partial writes are never
// observable to concurrent readers.
func (s *FeatureStore) Upsert(ctx context.Context, featureRows []*domain.FeatureRow) (int, error) {
	if len(featureRows) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO processed_features (
			date, petrol_price, lag_1, lag_2, lag_7, lag_14, rolling_7,
			crude_oil_price, inr_usd, target
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (date) DO UPDATE SET
			petrol_price = EXCLUDED.petrol_price,
			lag_1 = EXCLUDED.lag_1,
			lag_2 = EXCLUDED.lag_2,
			lag_7 = EXCLUDED.lag_7,
			lag_14 = EXCLUDED.lag_14,
			rolling_7 = EXCLUDED.rolling_7,
			crude_oil_price = EXCLUDED.crude_oil_price,
			inr_usd = EXCLUDED.inr_usd,
			target = EXCLUDED.target
	`

	for _, r := range featureRows {
		if r == nil {
			return 0, storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			domain.Day(r.Date),
			r.PetrolPrice,
			r.Lag1,
			r.Lag2,
			r.Lag7,
			r.Lag14,
			r.Rolling7,
			r.CrudeOilPrice,
			r.InrUsd,
			r.Target,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert feature row: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return len(featureRows), nil
}

// GetByDateRange retrieves rows within [start, end], ordered by date ASC.
func (s *FeatureStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.FeatureRow, error) {
	query := featureSelect + `
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get feature rows: %w", err)
	}
	defer rows.Close()

	return scanFeatureRows(rows)
}

// Latest retrieves the single most recent row by date.
func (s *FeatureStore) Latest(ctx context.Context) (*domain.FeatureRow, error) {
	query := featureSelect + `
		ORDER BY date DESC
		LIMIT 1
	`

	row := s.pool.QueryRow(ctx, query)

	var rec domain.FeatureRow
	err := row.Scan(
		&rec.Date,
		&rec.PetrolPrice,
		&rec.Lag1,
		&rec.Lag2,
		&rec.Lag7,
		&rec.Lag14,
		&rec.Rolling7,
		&rec.CrudeOilPrice,
		&rec.InrUsd,
		&rec.Target,
		&rec.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest feature row: %w", err)
	}

	rec.Date = domain.Day(rec.Date)
	return &rec, nil
}

const featureSelect = `
	SELECT date, petrol_price, lag_1, lag_2, lag_7, lag_14, rolling_7,
	       crude_oil_price, inr_usd, target, created_at
	FROM processed_features
`

// scanFeatureRows scans multiple rows into a slice of FeatureRow.
func scanFeatureRows(rows pgx.Rows) ([]*domain.FeatureRow, error) {
	var result []*domain.FeatureRow

	for rows.Next() {
		var rec domain.FeatureRow

		err := rows.Scan(
			&rec.Date,
			&rec.PetrolPrice,
			&rec.Lag1,
			&rec.Lag2,
			&rec.Lag7,
			&rec.Lag14,
			&rec.Rolling7,
			&rec.CrudeOilPrice,
			&rec.InrUsd,
			&rec.Target,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}

		rec.Date = domain.Day(rec.Date)
		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature rows: %w", err)
	}

	return result, nil
}
