package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nhuertas/supermercat/config"
	"github.com/nhuertas/supermercat/feeds"
	"github.com/nhuertas/supermercat/storage"
)

func handleExport(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: stdout)")
	storeFlag := fs.String("store", "", "only products from this market")
	cityFlag := fs.String("city", "", "only products scraped for this city")
	fs.Parse(args)

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	var filter storage.ProductFilter
	if *storeFlag != "" {
		filter.StoreID = storeFlag
	}
	if *cityFlag != "" {
		filter.City = cityFlag
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create %s: %v\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	count, err := feeds.Export(sys.store, out, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Exported %d products\n", count)
}

func handleImport(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: CSV file required")
		fmt.Fprintln(os.Stderr, "Usage: supermercat import <file.csv>")
		os.Exit(1)
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open %s: %v\n", fs.Arg(0), err)
		os.Exit(1)
	}
	defer f.Close()

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	result, err := feeds.Import(sys.store, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d, updated %d, skipped %d\n", result.Imported, result.Updated, result.Skipped)
}
