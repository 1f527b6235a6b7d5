package main

import (
	"fmt"
	"os"

	"github.com/nhuertas/supermercat/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	configPath := getEnv("SUPERMERCAT_CONFIG", "config.yaml")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "schedule":
		handleSchedule(cfg, os.Args[2:])
	case "campaign":
		handleCampaign(cfg, os.Args[2:])
	case "city":
		handleCity(cfg, os.Args[2:])
	case "markets":
		handleMarkets(cfg)
	case "enrich":
		handleEnrich(cfg, os.Args[2:])
	case "export":
		handleExport(cfg, os.Args[2:])
	case "import":
		handleImport(cfg, os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("supermercat - Spanish supermarket price tracker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  supermercat <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  schedule   Run the recurring scraping scheduler")
	fmt.Println("  campaign   Run a comprehensive multi-city campaign now")
	fmt.Println("  city       Scrape selected markets for one city")
	fmt.Println("  markets    List registered markets and their capabilities")
	fmt.Println("  enrich     Backfill nutrition facts from OpenFoodFacts")
	fmt.Println("  export     Export the products table as CSV")
	fmt.Println("  import     Import product rows from a CSV file")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  SUPERMERCAT_CONFIG  Path to the config file (default: config.yaml)")
	fmt.Println("  SUPERMERCAT_DB      Path to the product database (overrides config)")
}
