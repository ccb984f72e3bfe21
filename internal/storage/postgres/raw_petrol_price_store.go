package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// RawPetrolPriceStore implements storage.RawPetrolPriceStore using PostgreSQL.
type RawPetrolPriceStore struct {
	pool *Pool
}

// NewRawPetrolPriceStore creates a new RawPetrolPriceStore.
func NewRawPetrolPriceStore(pool *Pool) *RawPetrolPriceStore {
	return &RawPetrolPriceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RawPetrolPriceStore = (*RawPetrolPriceStore)(nil)

// Insert adds a new price point. Uniqueness is enforced by the database:
// ON CONFLICT (date) DO NOTHING makes the insert-if-absent atomic, so two
// concurrent writers for the same new date cannot both insert.
func (s *RawPetrolPriceStore) Insert(ctx context.Context, p *domain.RawPetrolPrice) error {
	if p == nil || p.PetrolPrice <= 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO raw_petrol_prices (date, petrol_price, source)
		VALUES ($1, $2, $3)
		ON CONFLICT (date) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query, domain.Day(p.Date), p.PetrolPrice, p.Source)
	if err != nil {
		return fmt.Errorf("insert raw petrol price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrDuplicateKey
	}

	return nil
}

// GetByDateRange retrieves records within [start, end], ordered by date ASC.
func (s *RawPetrolPriceStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.RawPetrolPrice, error) {
	query := `
		SELECT id, date, petrol_price, source, created_at
		FROM raw_petrol_prices
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get raw petrol prices: %w", err)
	}
	defer rows.Close()

	return scanRawPetrolPrices(rows)
}

// ExistingDates returns the set of dates already present within [start, end].
func (s *RawPetrolPriceStore) ExistingDates(ctx context.Context, start, end time.Time) (map[time.Time]struct{}, error) {
	query := `
		SELECT date FROM raw_petrol_prices
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date <= $2)
	`

	rows, err := s.pool.Query(ctx, query, dateArg(start), dateArg(end))
	if err != nil {
		return nil, fmt.Errorf("get existing petrol price dates: %w", err)
	}
	defer rows.Close()

	return scanDateSet(rows)
}

// dateArg converts a zero time into a NULL query argument.
func dateArg(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return domain.Day(t)
}

// scanDateSet scans single-column date rows into a set keyed by UTC midnight.
func scanDateSet(rows pgx.Rows) (map[time.Time]struct{}, error) {
	dates := make(map[time.Time]struct{})

	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date row: %w", err)
		}
		dates[domain.Day(d)] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate date rows: %w", err)
	}

	return dates, nil
}

// scanRawPetrolPrices scans multiple rows into a slice of RawPetrolPrice.
func scanRawPetrolPrices(rows pgx.Rows) ([]*domain.RawPetrolPrice, error) {
	var result []*domain.RawPetrolPrice

	for rows.Next() {
		var rec domain.RawPetrolPrice

		err := rows.Scan(
			&rec.ID,
			&rec.Date,
			&rec.PetrolPrice,
			&rec.Source,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan raw petrol price row: %w", err)
		}

		rec.Date = domain.Day(rec.Date)
		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw petrol price rows: %w", err)
	}

	return result, nil
}
