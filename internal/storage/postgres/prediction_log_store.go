package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage"
)

// PredictionLogStore implements storage.PredictionLogStore using PostgreSQL.
// The prediction sequence is stored as a JSONB document alongside the
// request metadata.
type PredictionLogStore struct {
	pool *Pool
}

// NewPredictionLogStore creates a new PredictionLogStore.
func NewPredictionLogStore(pool *Pool) *PredictionLogStore {
	return &PredictionLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PredictionLogStore = (*PredictionLogStore)(nil)

type predictionDoc struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// Insert appends a new log entry.
func (s *PredictionLogStore) Insert(ctx context.Context, l *domain.PredictionLog) error {
	if l == nil || l.ModelVersion == "" {
		return storage.ErrInvalidInput
	}

	docs := make([]predictionDoc, len(l.Predictions))
	for i, p := range l.Predictions {
		docs[i] = predictionDoc{
			Date:           domain.FormatDate(p.Date),
			PredictedPrice: p.PredictedPrice,
		}
	}

	payload, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal predictions: %w", err)
	}

	requestTime := l.RequestTime
	if requestTime.IsZero() {
		requestTime = time.Now().UTC()
	}

	query := `
		INSERT INTO prediction_logs (request_time, horizon_days, model_version, predictions)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.pool.Exec(ctx, query, requestTime, l.HorizonDays, l.ModelVersion, payload); err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}

	return nil
}

// Recent retrieves the most recent entries ordered by request time DESC.
func (s *PredictionLogStore) Recent(ctx context.Context, limit int) ([]*domain.PredictionLog, error) {
	query := `
		SELECT id, request_time, horizon_days, model_version, predictions
		FROM prediction_logs
		ORDER BY request_time DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent prediction logs: %w", err)
	}
	defer rows.Close()

	var result []*domain.PredictionLog
	for rows.Next() {
		var rec domain.PredictionLog
		var payload []byte

		if err := rows.Scan(&rec.ID, &rec.RequestTime, &rec.HorizonDays, &rec.ModelVersion, &payload); err != nil {
			return nil, fmt.Errorf("scan prediction log row: %w", err)
		}

		var docs []predictionDoc
		if err := json.Unmarshal(payload, &docs); err != nil {
			return nil, fmt.Errorf("unmarshal predictions: %w", err)
		}
		rec.Predictions = make([]domain.PredictionPoint, len(docs))
		for i, d := range docs {
			date, err := domain.ParseDate(d.Date)
			if err != nil {
				return nil, fmt.Errorf("parse prediction date: %w", err)
			}
			rec.Predictions[i] = domain.PredictionPoint{Date: date, PredictedPrice: d.PredictedPrice}
		}

		result = append(result, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction log rows: %w", err)
	}

	return result, nil
}
