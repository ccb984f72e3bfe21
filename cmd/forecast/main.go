// Package main provides the forecasting entry point.
// Resolves a model version and produces a multi-day price forecast.
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
	"petrol-price-lab/internal/forecast"
	"petrol-price-lab/internal/model"
	"petrol-price-lab/internal/registry"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	version := flag.String("version", "latest", "Model version to use")
	days := flag.Int("days", 0, "Forecast horizon in days (default from config)")
	endDate := flag.String("end-date", "", "Forecast through this date (YYYY-MM-DD), overrides -days")
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
	a.ServeMetrics()

	artifacts, err := model.NewArtifactStore(a.Config.Model.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := forecast.NewEngine(forecast.EngineOptions{
		Registry:  registry.NewService(registry.Options{Store: a.Stores.Registry, Logger: a.Logger}),
		Artifacts: artifacts,
		Features:  a.Stores.Features,
		Now:       time.Now,
	})
	svc := forecast.NewService(forecast.ServiceOptions{
		Engine:  engine,
		Logs:    a.Stores.Logs,
		Metrics: a.Metrics,
		Logger:  a.Logger,
	})

	req := forecast.Request{Version: *version, HorizonDays: *days}
	if *endDate != "" {
		end, err := domain.ParseDate(*endDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad end date: %v\n", err)
			os.Exit(2)
		}
		req.EndDate = end
		req.HorizonDays = 0
	} else if req.HorizonDays == 0 {
		req.HorizonDays = a.Config.Forecast.DefaultHorizonDays
	}

	result, err := svc.Forecast(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Forecast error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Forecast (%s) ===\n", result.ModelVersion)
	for _, p := range result.Predictions {
		fmt.Printf("  %s  %.2f\n", domain.FormatDate(p.Date), p.PredictedPrice)
	}
}
