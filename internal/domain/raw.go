package domain

import "time"

// RawPetrolPrice is one observed petrol price for a calendar date.
// The date is the natural key: a second write for the same date is a
// no-op at the storage layer, never an update.
// Corresponds to the raw_petrol_prices table.
type RawPetrolPrice struct {
	ID          int64
	Date        time.Time  // calendar date, UTC midnight
	PetrolPrice float64    // positive decimal
	Source      Provenance // acquisition channel
	CreatedAt   time.Time
}

// RawExogenousData carries the exogenous signals for a calendar date.
// Either signal may be absent for a given date.
// Corresponds to the raw_exogenous_data table.
type RawExogenousData struct {
	ID            int64
	Date          time.Time
	CrudeOilPrice *float64 // USD per barrel, nullable
	InrUsd        *float64 // INR per USD, nullable
	Source        Provenance
	CreatedAt     time.Time
}
