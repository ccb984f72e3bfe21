package etl

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/storage/memory"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%s) failed: %v", s, err)
	}
	return d
}

func newTestPipeline(t *testing.T) (*Pipeline, *memory.RawPetrolPriceStore, *memory.RawExogenousDataStore) {
	t.Helper()
	prices := memory.NewRawPetrolPriceStore()
	exog := memory.NewRawExogenousDataStore()
	p := NewPipeline(Options{
		PriceStore: prices,
		ExogStore:  exog,
		Logger:     zerolog.Nop(),
	})
	return p, prices, exog
}

func insertPrice(t *testing.T, store *memory.RawPetrolPriceStore, date string, price float64, source domain.Provenance) {
	t.Helper()
	err := store.Insert(context.Background(), &domain.RawPetrolPrice{
		Date:        day(t, date),
		PetrolPrice: price,
		Source:      source,
	})
	if err != nil {
		t.Fatalf("insert price %s failed: %v", date, err)
	}
}

func insertExog(t *testing.T, store *memory.RawExogenousDataStore, date string, crude, inr *float64) {
	t.Helper()
	err := store.Insert(context.Background(), &domain.RawExogenousData{
		Date:          day(t, date),
		CrudeOilPrice: crude,
		InrUsd:        inr,
		Source:        domain.ProvenanceMarketFeed,
	})
	if err != nil {
		t.Fatalf("insert exog %s failed: %v", date, err)
	}
}

func ptr(v float64) *float64 { return &v }

func TestExtract_LeftJoinKeepsEveryPriceRow(t *testing.T) {
	p, prices, exog := newTestPipeline(t)
	ctx := context.Background()

	insertPrice(t, prices, "2024-04-01", 100, domain.ProvenanceWebScraper)
	insertPrice(t, prices, "2024-04-02", 101, domain.ProvenanceWebScraper)
	insertPrice(t, prices, "2024-04-03", 102, domain.ProvenanceWebScraper)
	insertExog(t, exog, "2024-04-02", ptr(82.0), ptr(83.0))

	rows, err := p.Extract(ctx, domain.CategoryAll, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("left join must keep all 3 price rows, got %d", len(rows))
	}

	byDate := map[string]domain.MergedRow{}
	for _, r := range rows {
		byDate[domain.FormatDate(r.Date)] = r
	}
	if byDate["2024-04-01"].CrudeOilPrice != nil {
		t.Error("unmatched date must keep nil exogenous values")
	}
	if byDate["2024-04-02"].CrudeOilPrice == nil || *byDate["2024-04-02"].CrudeOilPrice != 82.0 {
		t.Error("matched date must attach exogenous values")
	}
}

func TestExtract_CategoryFilter(t *testing.T) {
	p, prices, _ := newTestPipeline(t)
	ctx := context.Background()

	insertPrice(t, prices, "2024-04-01", 100, domain.ProvenanceWebScraper)
	insertPrice(t, prices, "2024-04-02", 101, domain.ProvenanceCSVUpload)
	insertPrice(t, prices, "2024-04-03", 102, domain.ProvenanceManual)

	rows, err := p.Extract(ctx, domain.CategoryUploaded, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("uploaded category must keep csv_upload and manual rows, got %d", len(rows))
	}
}

func TestExtract_MarketFeedExcludesScrapedRows(t *testing.T) {
	p, prices, _ := newTestPipeline(t)
	ctx := context.Background()

	insertPrice(t, prices, "2024-04-01", 100, domain.ProvenanceWebScraper)
	insertPrice(t, prices, "2024-04-02", 101, domain.ProvenanceMarketFeed)

	rows, err := p.Extract(ctx, domain.CategoryMarketFeed, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("market_feed category must keep only feed rows, got %d", len(rows))
	}
	if rows[0].Source != domain.ProvenanceMarketFeed {
		t.Errorf("surviving row source = %s, want market_feed", rows[0].Source)
	}
}

func TestExtract_DateBounds(t *testing.T) {
	p, prices, _ := newTestPipeline(t)
	ctx := context.Background()

	insertPrice(t, prices, "2024-04-01", 100, domain.ProvenanceMarketFeed)
	insertPrice(t, prices, "2024-04-02", 101, domain.ProvenanceMarketFeed)
	insertPrice(t, prices, "2024-04-03", 102, domain.ProvenanceMarketFeed)
	insertPrice(t, prices, "2024-04-04", 103, domain.ProvenanceMarketFeed)

	rows, err := p.Extract(ctx, domain.CategoryAll, day(t, "2024-04-02"), day(t, "2024-04-03"))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows inside the bounds, got %d", len(rows))
	}
	if domain.FormatDate(rows[0].Date) != "2024-04-02" || domain.FormatDate(rows[1].Date) != "2024-04-03" {
		t.Errorf("unexpected bounded rows: %s, %s", domain.FormatDate(rows[0].Date), domain.FormatDate(rows[1].Date))
	}

	open, err := p.Extract(ctx, domain.CategoryAll, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(open) != 4 {
		t.Errorf("zero bounds must be unbounded, got %d rows", len(open))
	}
}

func TestClean_DedupeKeepsFirstAndSorts(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	rows := []domain.MergedRow{
		{Date: day(t, "2024-04-03"), PetrolPrice: 103},
		{Date: day(t, "2024-04-01"), PetrolPrice: 101},
		{Date: day(t, "2024-04-01"), PetrolPrice: 999}, // later duplicate is dropped
		{Date: day(t, "2024-04-02"), PetrolPrice: 102},
	}

	cleaned := p.Clean(rows, CleanOptions{})
	if len(cleaned) != 3 {
		t.Fatalf("expected 3 rows after dedupe, got %d", len(cleaned))
	}
	for i := 1; i < len(cleaned); i++ {
		if !cleaned[i-1].Date.Before(cleaned[i].Date) {
			t.Fatal("cleaned series must be sorted ascending")
		}
	}
	if cleaned[0].PetrolPrice != 101 {
		t.Errorf("first occurrence must win, got %f", cleaned[0].PetrolPrice)
	}
}

func TestClean_ForwardFillExogenous(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	rows := []domain.MergedRow{
		{Date: day(t, "2024-04-01"), PetrolPrice: 100},
		{Date: day(t, "2024-04-02"), PetrolPrice: 101, CrudeOilPrice: ptr(82.0), InrUsd: ptr(83.0)},
		{Date: day(t, "2024-04-03"), PetrolPrice: 102},
		{Date: day(t, "2024-04-04"), PetrolPrice: 103},
	}

	cleaned := p.Clean(rows, CleanOptions{})

	// Leading gap stays nil, trailing gaps fill forward.
	if cleaned[0].CrudeOilPrice != nil {
		t.Error("leading gap must stay nil")
	}
	if cleaned[2].CrudeOilPrice == nil || *cleaned[2].CrudeOilPrice != 82.0 {
		t.Error("gap after an observation must fill forward")
	}
	if cleaned[3].InrUsd == nil || *cleaned[3].InrUsd != 83.0 {
		t.Error("fill must propagate to the series end")
	}
}

func TestClean_RemoveOutliers(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	var rows []domain.MergedRow
	base := day(t, "2024-04-01")
	for i := 0; i < 20; i++ {
		rows = append(rows, domain.MergedRow{
			Date:        base.AddDate(0, 0, i),
			PetrolPrice: 100 + float64(i%3),
		})
	}
	rows = append(rows, domain.MergedRow{Date: base.AddDate(0, 0, 20), PetrolPrice: 500})

	cleaned := p.Clean(rows, CleanOptions{RemoveOutliers: true})
	for _, r := range cleaned {
		if r.PetrolPrice == 500 {
			t.Fatal("outlier price must be removed")
		}
	}
	if len(cleaned) != 20 {
		t.Errorf("expected 20 rows after outlier strip, got %d", len(cleaned))
	}
}

func TestClean_FillsBeforeOutlierStrip(t *testing.T) {
	p, _, _ := newTestPipeline(t)

	var rows []domain.MergedRow
	base := day(t, "2024-04-01")
	for i := 0; i < 10; i++ {
		rows = append(rows, domain.MergedRow{
			Date:          base.AddDate(0, 0, i),
			PetrolPrice:   100 + float64(i%3),
			CrudeOilPrice: ptr(70.0),
		})
	}
	// The outlier row carries the freshest crude value; rows after it
	// have none and must inherit it even though the row itself is dropped.
	rows = append(rows, domain.MergedRow{Date: base.AddDate(0, 0, 10), PetrolPrice: 500, CrudeOilPrice: ptr(75.0)})
	rows = append(rows, domain.MergedRow{Date: base.AddDate(0, 0, 11), PetrolPrice: 101})

	cleaned := p.Clean(rows, CleanOptions{RemoveOutliers: true})

	last := cleaned[len(cleaned)-1]
	if domain.FormatDate(last.Date) != "2024-04-12" {
		t.Fatalf("unexpected last row %s", domain.FormatDate(last.Date))
	}
	if last.CrudeOilPrice == nil || *last.CrudeOilPrice != 75.0 {
		t.Errorf("dropped outlier's exogenous value must propagate, got %v", last.CrudeOilPrice)
	}
	for _, r := range cleaned {
		if r.PetrolPrice == 500 {
			t.Error("outlier price must still be removed")
		}
	}
}

func TestRun_EmptyIsNotAnError(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	ctx := context.Background()

	rows, err := p.Run(ctx, domain.CategoryAll, time.Time{}, time.Time{}, CleanOptions{})
	if err != nil {
		t.Fatalf("empty pipeline run must not fail: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(rows))
	}
}
