// Package main provides the ETL pipeline entry point.
// Executes: extract → clean → feature build → persist
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petrol-price-lab/internal/app"
	"petrol-price-lab/internal/domain"
	"petrol-price-lab/internal/etl"
	"petrol-price-lab/internal/features"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	category := flag.String("category", "all", "Source category: all, market_feed, or uploaded")
	startDate := flag.String("start", "", "Start date YYYY-MM-DD (optional, inclusive)")
	endDate := flag.String("end", "", "End date YYYY-MM-DD (optional, inclusive)")
	removeOutliers := flag.Bool("remove-outliers", false, "Strip IQR price outliers during cleaning")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal %v, cancelling pipeline...\n", sig)
		cancel()
	}()

	cat := domain.SourceCategory(*category)
	if !cat.IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown category %q\n", *category)
		os.Exit(2)
	}
	from, to, err := parseBounds(*startDate, *endDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	a, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	a.ServeMetrics()

	pipeline := etl.NewPipeline(etl.Options{
		PriceStore: a.Stores.Prices,
		ExogStore:  a.Stores.Exog,
		Metrics:    a.Metrics,
		Logger:     a.Logger,
	})
	builder := features.NewBuilder(features.Options{
		Store:   a.Stores.Features,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})

	start := time.Now()
	series, err := pipeline.Run(ctx, cat, from, to, etl.CleanOptions{RemoveOutliers: *removeOutliers})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Pipeline error: %v\n", err)
		os.Exit(1)
	}

	rows := builder.Build(series)
	persisted, err := builder.Persist(ctx, rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Persist error: %v\n", err)
		os.Exit(1)
	}
	a.Metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	fmt.Println("=== ETL Pipeline ===")
	fmt.Printf("  Category:     %s\n", cat)
	fmt.Printf("  Series rows:  %d\n", len(series))
	fmt.Printf("  Feature rows: %d\n", persisted)
}

// parseBounds parses optional inclusive date bounds; empty means unbounded.
func parseBounds(start, end string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if start != "" {
		if from, err = domain.ParseDate(start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse start date: %w", err)
		}
	}
	if end != "" {
		if to, err = domain.ParseDate(end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parse end date: %w", err)
		}
	}
	return from, to, nil
}
