package training

import (
	"context"
	"fmt"

	"petrol-price-lab/internal/model"
)

// Trainer fits a linear predictor on an already-scaled feature matrix.
// Implementations must be deterministic for the same input.
type Trainer interface {
	Train(ctx context.Context, inputs [][]float64, targets []float64) (*model.LinearModel, error)
}

// LeastSquaresTrainer fits by ridge-regularized normal equations. The
// small regularization term keeps the system solvable when scaled lag
// columns are nearly collinear, which they are for slow-moving prices.
type LeastSquaresTrainer struct {
	// Lambda is the ridge coefficient. Zero means the default.
	Lambda float64
}

const defaultLambda = 1e-6

// Train solves (X'X + lambda*I) w = X'y with an intercept column.
func (t *LeastSquaresTrainer) Train(ctx context.Context, inputs [][]float64, targets []float64) (*model.LinearModel, error) {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return nil, fmt.Errorf("train: %d inputs vs %d targets", len(inputs), len(targets))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lambda := t.Lambda
	if lambda == 0 {
		lambda = defaultLambda
	}

	cols := len(inputs[0])
	// Augmented dimension includes the intercept at index cols.
	dim := cols + 1

	xtx := make([][]float64, dim)
	for i := range xtx {
		xtx[i] = make([]float64, dim)
	}
	xty := make([]float64, dim)

	row := make([]float64, dim)
	for r, x := range inputs {
		if len(x) != cols {
			return nil, fmt.Errorf("train: ragged input at row %d", r)
		}
		copy(row, x)
		row[cols] = 1
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
			xty[i] += row[i] * targets[r]
		}
	}
	for i := 0; i < cols; i++ {
		xtx[i][i] += lambda
	}

	w, err := solve(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	return &model.LinearModel{Weights: w[:cols], Bias: w[cols]}, nil
}

// solve performs Gaussian elimination with partial pivoting on a copy of
// the system.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(m[r][col]) > abs(m[pivot][col]) {
				pivot = r
			}
		}
		if abs(m[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		m[col], m[pivot] = m[pivot], m[col]

		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c <= n; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	w := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * w[j]
		}
		w[i] = sum / m[i][i]
	}
	return w, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
