package clickhouse

import (
	"context"
	"fmt"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// PredictionLogStore implements storage.PredictionLogStore using ClickHouse.
// Prediction logs are high-volume write-once audit records with no update
// path, which fits a MergeTree table; the forecast sequence is stored as
// parallel date/price arrays.
type PredictionLogStore struct {
	conn *Conn
}

// NewPredictionLogStore creates a new PredictionLogStore.
func NewPredictionLogStore(conn *Conn) *PredictionLogStore {
	return &PredictionLogStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PredictionLogStore = (*PredictionLogStore)(nil)

// Insert appends a new log entry.
func (s *PredictionLogStore) Insert(ctx context.Context, l *domain.PredictionLog) error {
	if l == nil || l.ModelVersion == "" {
		return storage.ErrInvalidInput
	}

	dates := make([]time.Time, len(l.Predictions))
	prices := make([]float64, len(l.Predictions))
	for i, p := range l.Predictions {
		dates[i] = domain.Day(p.Date)
		prices[i] = p.PredictedPrice
	}

	requestTime := l.RequestTime
	if requestTime.IsZero() {
		requestTime = time.Now().UTC()
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO prediction_logs (
			request_time, horizon_days, model_version, prediction_dates, predicted_prices
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	if err := batch.Append(requestTime, uint32(l.HorizonDays), l.ModelVersion, dates, prices); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// Recent retrieves the most recent entries ordered by request time DESC.
func (s *PredictionLogStore) Recent(ctx context.Context, limit int) ([]*domain.PredictionLog, error) {
	query := `
		SELECT request_time, horizon_days, model_version, prediction_dates, predicted_prices
		FROM prediction_logs
		ORDER BY request_time DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent prediction logs: %w", err)
	}
	defer rows.Close()

	var result []*domain.PredictionLog
	for rows.Next() {
		var (
			rec     domain.PredictionLog
			horizon uint32
			dates   []time.Time
			prices  []float64
		)

		if err := rows.Scan(&rec.RequestTime, &horizon, &rec.ModelVersion, &dates, &prices); err != nil {
			return nil, fmt.Errorf("scan prediction log row: %w", err)
		}

		rec.HorizonDays = int(horizon)
		rec.Predictions = make([]domain.PredictionPoint, len(dates))
		for i := range dates {
			rec.Predictions[i] = domain.PredictionPoint{
				Date:           domain.Day(dates[i]),
				PredictedPrice: prices[i],
			}
		}

		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction log rows: %w", err)
	}

	return result, nil
}
