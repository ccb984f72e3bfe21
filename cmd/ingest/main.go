// Package main provides the ingestion entry point.
// Ingests a single observation or a CSV batch, and reports date gaps.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"petrol-price-lab/internal/app"
	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/ingestion"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	csvPath := flag.String("csv", "", "CSV file to ingest as a batch")
	date := flag.String("date", "", "Observation date (YYYY-MM-DD) for a single point")
	price := flag.String("price", "", "Petrol price for a single point")
	crude := flag.String("crude", "", "Crude oil price for a single exogenous point")
	inrUsd := flag.String("inr-usd", "", "INR/USD rate for a single exogenous point")
	source := flag.String("source", "manual", "Provenance tag for single-point ingestion")
	missingFrom := flag.String("missing-from", "", "Start date for missing-date report")
	missingTo := flag.String("missing-to", "", "End date for missing-date report")
	kind := flag.String("kind", "petrol", "Data kind: petrol or exogenous")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling...\n", sig)
		cancel()
	}()

	a, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	svc := ingestion.NewService(ingestion.Options{
		PriceStore: a.Stores.Prices,
		ExogStore:  a.Stores.Exog,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})

	switch {
	case *csvPath != "":
		if err := runBatch(ctx, svc, *csvPath, *source); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *missingFrom != "" && *missingTo != "":
		if err := runMissing(ctx, svc, ingestion.DataKind(*kind), *missingFrom, *missingTo); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case *date != "":
		if err := runPoint(ctx, svc, *date, *price, *crude, *inrUsd, *source); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "Nothing to do: pass -csv, -date, or -missing-from/-missing-to")
		os.Exit(2)
	}
}

func runBatch(ctx context.Context, svc *ingestion.Service, path, source string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	prov := domain.Provenance(source)
	if !prov.IsValid() {
		prov = domain.ProvenanceCSVUpload
	}

	rows, kind, err := ingestion.ParseUpload(f, prov)
	if err != nil {
		return err
	}

	result, err := svc.IngestBatch(ctx, rows, kind)
	if err != nil {
		return err
	}

	fmt.Printf("Batch complete (%s): %d total, %d inserted, %d duplicates\n",
		kind, result.Total, result.Inserted, result.Duplicates)
	return nil
}

func runMissing(ctx context.Context, svc *ingestion.Service, kind ingestion.DataKind, from, to string) error {
	start, err := domain.ParseDate(from)
	if err != nil {
		return err
	}
	end, err := domain.ParseDate(to)
	if err != nil {
		return err
	}

	missing, err := svc.FindMissingDates(ctx, kind, start, end)
	if err != nil {
		return err
	}

	fmt.Printf("Missing %s dates: %d\n", kind, len(missing))
	for _, d := range missing {
		fmt.Printf("  %s\n", domain.FormatDate(d))
	}
	return nil
}

func runPoint(ctx context.Context, svc *ingestion.Service, date, price, crude, inrUsd, source string) error {
	d, err := domain.ParseDate(date)
	if err != nil {
		return err
	}

	prov := domain.Provenance(source)
	if !prov.IsValid() {
		return fmt.Errorf("unknown source %q", source)
	}

	if price != "" {
		p, err := strconv.ParseFloat(price, 64)
		if err != nil {
			return fmt.Errorf("bad price %q: %w", price, err)
		}
		inserted, err := svc.IngestPricePoint(ctx, d, p, prov)
		if err != nil {
			return err
		}
		fmt.Printf("Petrol price %s: inserted=%v\n", date, inserted)
		return nil
	}

	var crudePtr, inrPtr *float64
	if crude != "" {
		v, err := strconv.ParseFloat(crude, 64)
		if err != nil {
			return fmt.Errorf("bad crude price %q: %w", crude, err)
		}
		crudePtr = &v
	}
	if inrUsd != "" {
		v, err := strconv.ParseFloat(inrUsd, 64)
		if err != nil {
			return fmt.Errorf("bad inr-usd %q: %w", inrUsd, err)
		}
		inrPtr = &v
	}

	inserted, err := svc.IngestExogenousPoint(ctx, d, crudePtr, inrPtr, prov)
	if err != nil {
		return err
	}
	fmt.Printf("Exogenous data %s: inserted=%v\n", date, inserted)
	return nil
}
