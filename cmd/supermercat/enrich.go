package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nhuertas/supermercat/config"
	"github.com/nhuertas/supermercat/enrich"
)

func handleEnrich(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("enrich", flag.ExitOnError)
	limit := fs.Int("limit", 0, "maximum products to process (0 = all)")
	fs.Parse(args)

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enricher := enrich.NewEnricher(sys.store, enrich.NewClient(), cfg.Enrich.ProgressPath)
	stats, err := enricher.Run(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: enrichment failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d products: %d enriched, %d failed\n", stats.Processed, stats.Enriched, stats.Failed)
}
