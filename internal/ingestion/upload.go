package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"petrol-price-lab/internal/domain"
)

// UploadRow is one parsed row from an uploaded dataset. PetrolPrice is
// set for petrol batches, the exogenous pointers for exogenous batches.
type UploadRow struct {
	Date          time.Time
	PetrolPrice   *float64
	CrudeOilPrice *float64
	InrUsd        *float64
	Source        domain.Provenance
}

func (r *UploadRow) validate(kind DataKind) error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrValidation)
	}
	switch kind {
	case KindPetrol:
		if r.PetrolPrice == nil {
			return fmt.Errorf("%w: missing petrol price", ErrValidation)
		}
		if *r.PetrolPrice <= 0 {
			return fmt.Errorf("%w: petrol price must be positive, got %v", ErrValidation, *r.PetrolPrice)
		}
	case KindExogenous:
		if r.CrudeOilPrice == nil && r.InrUsd == nil {
			return fmt.Errorf("%w: exogenous row needs at least one signal", ErrValidation)
		}
	}
	return nil
}

// column name aliases accepted in uploaded headers, lowercased.
var (
	dateColumns  = map[string]struct{}{"date": {}, "day": {}, "timestamp": {}}
	priceColumns = map[string]struct{}{"petrol_price": {}, "price": {}, "petrol": {}}
	crudeColumns = map[string]struct{}{"crude_oil_price": {}, "crude_oil": {}, "crude": {}}
	inrColumns   = map[string]struct{}{"inr_usd": {}, "usd_inr": {}, "exchange_rate": {}}
)

type uploadSchema struct {
	kind     DataKind
	dateIdx  int
	priceIdx int
	crudeIdx int
	inrIdx   int
}

// detectSchema classifies an uploaded header as a petrol or exogenous
// dataset. A petrol price column wins over exogenous columns when both
// are present.
func detectSchema(header []string) (uploadSchema, error) {
	schema := uploadSchema{dateIdx: -1, priceIdx: -1, crudeIdx: -1, inrIdx: -1}

	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, ok := dateColumns[name]; ok && schema.dateIdx < 0 {
			schema.dateIdx = i
		}
		if _, ok := priceColumns[name]; ok && schema.priceIdx < 0 {
			schema.priceIdx = i
		}
		if _, ok := crudeColumns[name]; ok && schema.crudeIdx < 0 {
			schema.crudeIdx = i
		}
		if _, ok := inrColumns[name]; ok && schema.inrIdx < 0 {
			schema.inrIdx = i
		}
	}

	if schema.dateIdx < 0 {
		return schema, fmt.Errorf("%w: no date column in header %v", ErrValidation, header)
	}
	switch {
	case schema.priceIdx >= 0:
		schema.kind = KindPetrol
	case schema.crudeIdx >= 0 || schema.inrIdx >= 0:
		schema.kind = KindExogenous
	default:
		return schema, fmt.Errorf("%w: no recognized data columns in header %v", ErrValidation, header)
	}

	return schema, nil
}

// ParseUpload reads a CSV dataset, auto-detects whether it carries petrol
// prices or exogenous signals, and returns the parsed rows with the
// detected kind. Any malformed date or number fails the whole upload.
func ParseUpload(r io.Reader, source domain.Provenance) ([]UploadRow, DataKind, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, "", fmt.Errorf("%w: read header: %v", ErrValidation, err)
	}

	schema, err := detectSchema(header)
	if err != nil {
		return nil, "", err
	}

	var rows []UploadRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("%w: line %d: %v", ErrValidation, line, err)
		}

		row, err := parseRecord(record, schema, source)
		if err != nil {
			return nil, "", fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return rows, schema.kind, nil
}

func parseRecord(record []string, schema uploadSchema, source domain.Provenance) (UploadRow, error) {
	row := UploadRow{Source: source}

	date, err := parseField(record, schema.dateIdx)
	if err != nil {
		return row, err
	}
	row.Date, err = domain.ParseDate(date)
	if err != nil {
		return row, fmt.Errorf("%w: bad date %q", ErrValidation, date)
	}

	if schema.kind == KindPetrol {
		raw, err := parseField(record, schema.priceIdx)
		if err != nil {
			return row, err
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return row, fmt.Errorf("%w: bad petrol price %q", ErrValidation, raw)
		}
		row.PetrolPrice = &price
		return row, nil
	}

	if schema.crudeIdx >= 0 {
		if v, err := parseOptionalFloat(record, schema.crudeIdx); err != nil {
			return row, fmt.Errorf("%w: bad crude oil price: %v", ErrValidation, err)
		} else {
			row.CrudeOilPrice = v
		}
	}
	if schema.inrIdx >= 0 {
		if v, err := parseOptionalFloat(record, schema.inrIdx); err != nil {
			return row, fmt.Errorf("%w: bad exchange rate: %v", ErrValidation, err)
		} else {
			row.InrUsd = v
		}
	}

	return row, nil
}

func parseField(record []string, idx int) (string, error) {
	if idx >= len(record) {
		return "", fmt.Errorf("%w: short record", ErrValidation)
	}
	v := strings.TrimSpace(record[idx])
	if v == "" {
		return "", fmt.Errorf("%w: empty field", ErrValidation)
	}
	return v, nil
}

// parseOptionalFloat treats a missing or empty cell as absent, not as an
// error. Non-empty cells must parse.
func parseOptionalFloat(record []string, idx int) (*float64, error) {
	if idx >= len(record) {
		return nil, nil
	}
	raw := strings.TrimSpace(record[idx])
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
