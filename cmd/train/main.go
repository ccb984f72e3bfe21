// Package main provides the training entry point.
// Executes: ETL → features → fit → evaluate → register
package main

import (
	"context"
	"errors"
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
	"petrol-price-lab/internal/model"
	"petrol-price-lab/internal/registry"
	"petrol-price-lab/internal/training"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	category := flag.String("category", "", "Source category override: all, market_feed, or uploaded")
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
		fmt.Printf("\nReceived signal %v, cancelling training...\n", sig)
		cancel()
	}()

	a, err := app.New(ctx, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	a.ServeMetrics()

	cat := domain.SourceCategory(a.Config.Training.Category)
	if *category != "" {
		cat = domain.SourceCategory(*category)
	}
	if !cat.IsValid() {
		fmt.Fprintf(os.Stderr, "Unknown category %q\n", cat)
		os.Exit(2)
	}

	var from, to time.Time
	if *startDate != "" {
		if from, err = domain.ParseDate(*startDate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: parse start date: %v\n", err)
			os.Exit(2)
		}
	}
	if *endDate != "" {
		if to, err = domain.ParseDate(*endDate); err != nil {
			fmt.Fprintf(os.Stderr, "Error: parse end date: %v\n", err)
			os.Exit(2)
		}
	}

	artifacts, err := model.NewArtifactStore(a.Config.Model.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	workflow := training.NewWorkflow(training.Options{
		Pipeline: etl.NewPipeline(etl.Options{
			PriceStore: a.Stores.Prices,
			ExogStore:  a.Stores.Exog,
			Metrics:    a.Metrics,
			Logger:     a.Logger,
		}),
		Builder: features.NewBuilder(features.Options{
			Store:   a.Stores.Features,
			Metrics: a.Metrics,
			Logger:  a.Logger,
		}),
		Trainer:   &training.LeastSquaresTrainer{},
		Registry:  registry.NewService(registry.Options{Store: a.Stores.Registry, Logger: a.Logger}),
		Artifacts: artifacts,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	})

	mv, err := workflow.Run(ctx, training.RunOptions{
		Category:       cat,
		Start:          from,
		End:            to,
		RemoveOutliers: *removeOutliers || a.Config.Training.RemoveOutliers,
	})
	if err != nil {
		if errors.Is(err, training.ErrInsufficientData) {
			fmt.Fprintf(os.Stderr, "Not enough data to train: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Training error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Training ===")
	fmt.Printf("  Version:  %s\n", mv.Version)
	fmt.Printf("  Samples:  %d\n", mv.TrainingSamples)
	fmt.Printf("  RMSE:     %.4f\n", mv.Metrics.RMSE)
	fmt.Printf("  MAE:      %.4f\n", mv.Metrics.MAE)
	fmt.Printf("  MAPE:     %.2f%%\n", mv.Metrics.MAPE)
	fmt.Printf("  R2:       %.4f\n", mv.Metrics.R2)
}
