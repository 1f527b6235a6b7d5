package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/nhuertas/supermercat/storage"
)

// CatalogScraper crawls paginated storefront catalogs with colly. It is
// the path for single-location markets whose listings span many pages.
type CatalogScraper struct {
	store     *storage.Store
	userAgent string
	delay     time.Duration
}

// NewCatalogScraper creates a catalog scraper writing into store.
func NewCatalogScraper(store *storage.Store) *CatalogScraper {
	return &CatalogScraper{
		store:     store,
		userAgent: defaultUserAgent,
		delay:     500 * time.Millisecond,
	}
}

// Scrape crawls each category's listing pages, following pagination links
// up to the site's MaxPages, and upserts every product card found, up to
// maxProducts in total. Returns the number of products stored.
func (s *CatalogScraper) Scrape(ctx context.Context, site Site, categories []string, maxProducts int) (int, error) {
	parsed, err := url.Parse(site.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid base url for %s: %w", site.Market, err)
	}
	if parsed.Host == "" {
		return 0, fmt.Errorf("base url for %s must include a host", site.Market)
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(s.userAgent),
	)
	collector.SetRequestTimeout(15 * time.Second)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       s.delay,
	}); err != nil {
		return 0, fmt.Errorf("failed to configure rate limits: %w", err)
	}

	selectors := site.Selectors
	count := 0
	pages := 0

	collector.OnHTML(selectors.Item, func(e *colly.HTMLElement) {
		if maxProducts > 0 && count >= maxProducts {
			return
		}

		name := firstText(e.DOM, selectors.Name)
		if name == "" {
			return
		}

		priceText := firstText(e.DOM, selectors.Price)
		price, err := ParsePrice(priceText)
		if err != nil {
			log.Printf("WARN: %s: invalid price format for %s: %q", site.Market, name, priceText)
			return
		}

		product := storage.NewProduct{
			Name:     name,
			Price:    price,
			Category: e.Request.Ctx.Get("category"),
			StoreID:  site.Market,
		}
		if quantity := NormalizeQuantity(firstText(e.DOM, selectors.Quantity)); quantity != "" {
			product.Quantity = &quantity
		}

		if _, _, err := s.store.UpsertProduct(product); err != nil {
			log.Printf("ERROR: %s: failed to store %s: %v", site.Market, name, err)
			return
		}
		count++
	})

	if selectors.NextPage != "" {
		collector.OnHTML(selectors.NextPage, func(e *colly.HTMLElement) {
			pages++
			if pages >= selectors.MaxPages {
				return
			}
			if ctx.Err() != nil {
				return
			}
			if maxProducts > 0 && count >= maxProducts {
				return
			}
			next := e.Request.AbsoluteURL(e.Attr("href"))
			if next == "" {
				return
			}
			nextCtx := colly.NewContext()
			nextCtx.Put("category", e.Request.Ctx.Get("category"))
			collector.Request("GET", next, nil, nextCtx, nil)
		})
	}

	collector.OnError(func(r *colly.Response, err error) {
		log.Printf("WARN: %s: request error for %s: %v", site.Market, r.Request.URL, err)
	})

	for _, category := range categories {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		if maxProducts > 0 && count >= maxProducts {
			break
		}
		pages = 0

		requestCtx := colly.NewContext()
		requestCtx.Put("category", category)
		if err := collector.Request("GET", site.ListingURL(category, ""), nil, requestCtx, nil); err != nil {
			log.Printf("WARN: %s: failed to visit category %s: %v", site.Market, category, err)
		}
		collector.Wait()
	}

	if count == 0 {
		return 0, fmt.Errorf("%s: no products extracted", site.Market)
	}
	return count, nil
}
