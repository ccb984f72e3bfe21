package training

import (
	"math"

	"petrol-price-lab/internal/domain"
)

// Evaluate computes the evaluation snapshot for predictions against
// actuals. Zero actuals are masked out of MAPE so the percentage stays
// finite. Slices must be the same non-zero length.
func Evaluate(actual, predicted []float64) domain.EvalMetrics {
	n := float64(len(actual))

	var sse, sae float64
	for i := range actual {
		d := actual[i] - predicted[i]
		sse += d * d
		sae += math.Abs(d)
	}

	var mape float64
	var mapeN int
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
		mapeN++
	}
	if mapeN > 0 {
		mape = mape / float64(mapeN) * 100
	}

	var mean float64
	for _, v := range actual {
		mean += v
	}
	mean /= n

	var sst float64
	for _, v := range actual {
		d := v - mean
		sst += d * d
	}
	r2 := 0.0
	if sst > 0 {
		r2 = 1 - sse/sst
	}

	return domain.EvalMetrics{
		RMSE: math.Sqrt(sse / n),
		MAE:  sae / n,
		MAPE: mape,
		R2:   r2,
	}
}
