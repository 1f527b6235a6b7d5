package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nhuertas/supermercat/campaign"
	"github.com/nhuertas/supermercat/config"
)

func handleCampaign(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("campaign", flag.ExitOnError)
	cityFlag := fs.String("cities", "", "comma-separated cities (default: major cities)")
	marketFlag := fs.String("markets", "", "comma-separated markets (default: all registered)")
	maxPerCity := fs.Int("max-per-city", 25, "product cap per city-aware market and city")
	maxPerMarket := fs.Int("max-per-market", 40, "product cap per single-location market")
	fs.Parse(args)

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := sys.orchestrator.RunComprehensive(ctx,
		splitList(*cityFlag), splitList(*marketFlag), *maxPerCity, *maxPerMarket)
	printResult(result)
}

func handleCity(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("city", flag.ExitOnError)
	marketFlag := fs.String("markets", "", "comma-separated markets (default: all registered)")
	maxProducts := fs.Int("max", 30, "product cap per market")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: city name required")
		fmt.Fprintln(os.Stderr, "Usage: supermercat city [flags] <city>")
		os.Exit(1)
	}
	city := fs.Arg(0)

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := sys.orchestrator.RunCity(ctx, city, splitList(*marketFlag), *maxProducts)
	printResult(result)
}

func printResult(result *campaign.Result) {
	fmt.Printf("\nCampaign %s finished in %s\n", result.RunID, result.Duration.Round(time.Second))
	fmt.Printf("  Cities:   %s\n", strings.Join(result.Cities, ", "))
	fmt.Printf("  Markets:  %s\n", strings.Join(result.Markets, ", "))
	fmt.Printf("  Products: %d\n", result.TotalProducts)
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
