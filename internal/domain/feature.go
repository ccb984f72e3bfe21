package domain

import "time"

// FeatureColumns is the stable positional order of model input features.
// The trained scaler and model bind to this order; never reorder.
var FeatureColumns = []string{
	"petrol_price",
	"lag_1",
	"lag_2",
	"lag_7",
	"lag_14",
	"rolling_7",
	"crude_oil_price",
	"inr_usd",
}

// FeatureRow is one row of the supervised-learning table derived from the
// merged series. A row exists only when every lag, rolling and target field
// is defined; rows at the series boundary are dropped, never null-padded.
// Exogenous fields stay nullable.
// Corresponds to the processed_features table, keyed by date.
type FeatureRow struct {
	Date          time.Time
	PetrolPrice   float64
	Lag1          float64 // price 1 day prior
	Lag2          float64
	Lag7          float64
	Lag14         float64
	Rolling7      float64 // trailing 7-day simple moving average
	CrudeOilPrice *float64
	InrUsd        *float64
	Target        float64 // price one day ahead of Date
	CreatedAt     time.Time
}

// Vector assembles the model input in FeatureColumns order.
// Nil exogenous fields are substituted with the given defaults.
func (f *FeatureRow) Vector(crudeDefault, inrUsdDefault float64) []float64 {
	crude := crudeDefault
	if f.CrudeOilPrice != nil {
		crude = *f.CrudeOilPrice
	}
	inrUsd := inrUsdDefault
	if f.InrUsd != nil {
		inrUsd = *f.InrUsd
	}
	return []float64{
		f.PetrolPrice,
		f.Lag1,
		f.Lag2,
		f.Lag7,
		f.Lag14,
		f.Rolling7,
		crude,
		inrUsd,
	}
}
