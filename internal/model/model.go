// Package model defines the trained artifact format: a linear predictor
// stored as JSON next to the feature scaler fitted on the same training
// set. The pair is loaded and used together; a model without its scaler
// cannot produce meaningful predictions.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrConfiguration is returned when an artifact or its scaler sidecar is
// missing or malformed on disk.
var ErrConfiguration = errors.New("model configuration invalid")

// LinearModel predicts the next-day price as a weighted sum of the
// scaled feature vector.
type LinearModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Predict computes the model output for one scaled feature vector.
func (m *LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("%w: got %d features, model expects %d", ErrConfiguration, len(x), len(m.Weights))
	}
	y := m.Bias
	for i, w := range m.Weights {
		y += w * x[i]
	}
	return y, nil
}

// StandardScaler normalizes features to zero mean and unit variance using
// statistics captured at training time. Transform never refits.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes column means and standard deviations over the
// training matrix. Constant columns get a unit deviation so scaling
// stays defined.
func FitScaler(inputs [][]float64) (*StandardScaler, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: cannot fit scaler on empty input", ErrConfiguration)
	}

	cols := len(inputs[0])
	mean := make([]float64, cols)
	std := make([]float64, cols)

	for _, row := range inputs {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: ragged input matrix", ErrConfiguration)
		}
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(inputs))
	for j := range mean {
		mean[j] /= n
	}

	for _, row := range inputs {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return &StandardScaler{Mean: mean, Std: std}, nil
}

// Transform scales one feature vector with the stored statistics.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d features, scaler expects %d", ErrConfiguration, len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out, nil
}

// TransformAll scales a matrix row by row.
func (s *StandardScaler) TransformAll(inputs [][]float64) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	for i, row := range inputs {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
