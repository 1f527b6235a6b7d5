package scraper

import (
	"context"
	"fmt"
	"log"

	"github.com/nhuertas/supermercat/markets"
	"github.com/nhuertas/supermercat/storage"
)

// RegisterDefaults binds every built-in market descriptor to a concrete
// scraper entry point and registers it. City-aware markets go through the
// per-city ListScraper; single-location markets crawl their catalog with
// the CatalogScraper. condisline keeps its legacy uncapped entry point.
func RegisterDefaults(registry *markets.Registry, store *storage.Store) error {
	sites := DefaultSites()
	list := NewListScraper(store)
	catalog := NewCatalogScraper(store)

	for _, descriptor := range markets.DefaultDescriptors() {
		site, ok := sites[descriptor.Name]
		if !ok {
			return fmt.Errorf("no site configuration for market %s", descriptor.Name)
		}

		categories := descriptor.Categories
		switch {
		case descriptor.CitySupport:
			descriptor.Entry = markets.EntryPoint{
				Cities: cityEntry(list, site, categories),
			}
		case descriptor.Name == "condisline":
			descriptor.Entry = markets.EntryPoint{
				SingleNoCap: func(ctx context.Context) (int, error) {
					return catalog.Scrape(ctx, site, categories, 0)
				},
			}
		default:
			descriptor.Entry = markets.EntryPoint{
				Single: func(ctx context.Context, maxProducts int) (int, error) {
					return catalog.Scrape(ctx, site, categories, maxProducts)
				},
			}
		}

		if err := registry.Register(descriptor); err != nil {
			return fmt.Errorf("failed to register %s: %w", descriptor.Name, err)
		}
	}

	return nil
}

// cityEntry builds a city-aware entry point that scrapes each requested
// city in turn. A city that fails is logged and skipped; the entry point
// only errors when every city failed.
func cityEntry(list *ListScraper, site Site, categories []string) markets.CityScraperFunc {
	return func(ctx context.Context, cities []string, maxProductsPerCity int) (int, error) {
		total := 0
		failures := 0
		for _, city := range cities {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}

			count, err := list.Scrape(ctx, site, categories, city, maxProductsPerCity)
			if err != nil {
				log.Printf("WARN: %s: city %s failed: %v", site.Market, city, err)
				failures++
				continue
			}
			total += count
		}

		if len(cities) > 0 && failures == len(cities) {
			return 0, fmt.Errorf("%s: all %d cities failed", site.Market, len(cities))
		}
		return total, nil
	}
}
