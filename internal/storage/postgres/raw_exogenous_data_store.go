package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// RawExogenousDataStore implements storage.RawExogenousDataStore using PostgreSQL.
type RawExogenousDataStore struct {
	pool *Pool
}

// NewRawExogenousDataStore creates a new RawExogenousDataStore.
func NewRawExogenousDataStore(pool *Pool) *RawExogenousDataStore {
	return &RawExogenousDataStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawExogenousDataStore = (*RawExogenousDataStore)(nil)

// Insert adds a new exogenous point. ON CONFLICT (date) DO NOTHING keeps
// the insert-if-absent atomic under concurrent writers.
func (s *RawExogenousDataStore) Insert(ctx context.Context, e *domain.RawExogenousData) error {
	if e == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO raw_exogenous_data (date, crude_oil_price, inr_usd, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, domain.Day(e.Date), e.CrudeOilPrice, e.InrUsd, e.Source)
	if err != nil {
		return fmt.Errorf("insert raw exogenous data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}

	return nil
}

// GetByDateRange retrieves records within [start, end], ordered by date ASC.
func (s *RawExogenousDataStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.RawExogenousData, error) {
	query := `
		SELECT id, date, crude_oil_price, inr_usd, source, created_at
		FROM raw_exogenous_data
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get raw exogenous data: %w", err)
	}
	defer rows.Close()

	return scanRawExogenousData(rows)
}

// ExistingDates returns the set of dates already present within [start, end].
func (s *RawExogenousDataStore) ExistingDates(ctx context.Context, start, end time.Time) (map[time.Time]struct{}, error) {
	query := `
		SELECT date FROM raw_exogenous_data
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get existing exogenous dates: %w", err)
	}
	defer rows.Close()

	return scanDateSet(rows)
}

// scanRawExogenousData scans multiple rows into a slice of RawExogenousData.
func scanRawExogenousData(rows pgx.Rows) ([]*domain.RawExogenousData, error) {
	var result []*domain.RawExogenousData

	for rows.Next() {
		var rec domain.RawExogenousData

		err := rows.Scan(
			&rec.ID,
			&rec.Date,
			&rec.CrudeOilPrice,
			&rec.InrUsd,
			&rec.Source,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw exogenous row: %w", err)
		}

		rec.Date = domain.Day(rec.Date)
		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw exogenous rows: %w", err)
	}

	return result, nil
}
