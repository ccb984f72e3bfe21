package domain

import "time"

// PredictionPoint is one forecast step: a future date and its predicted price.
type PredictionPoint struct {
	Date           time.Time `json:"date"`
	PredictedPrice float64   `json:"predicted_price"`
}

// PredictionLog is a write-once audit record of one forecast invocation.
// Corresponds to the prediction_logs table.
type PredictionLog struct {
	ID           int64
	RequestTime  time.Time
	HorizonDays  int
	ModelVersion string
	Predictions  []PredictionPoint
}
