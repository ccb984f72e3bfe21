package domain

import "time"

// MergedRow is one row of the cleaned chronological series produced by ETL.
// The petrol price series is primary; exogenous fields are left-joined by
// date and stay nil on dates without exogenous data.
type MergedRow struct {
	Date          time.Time
	PetrolPrice   float64
	CrudeOilPrice *float64
	InrUsd        *float64
	Source        Provenance
}
