package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nhuertas/supermercat/storage"
)

const defaultUserAgent = "supermercat/1.0 (Spanish supermarket price tracker)"

// ListScraper fetches listing pages over plain HTTP and extracts product
// cards with goquery. It covers storefronts that render product lists
// server-side; JS-heavy catalogs go through CatalogScraper instead.
type ListScraper struct {
	store     *storage.Store
	client    *http.Client
	userAgent string
}

// NewListScraper creates a list scraper writing into store.
func NewListScraper(store *storage.Store) *ListScraper {
	return &ListScraper{
		store:     store,
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: defaultUserAgent,
	}
}

// Scrape fetches one listing page per category and upserts every product
// card found, up to maxProducts in total. city may be empty for
// single-location storefronts. It returns the number of products stored;
// a category that fails to fetch is logged and skipped, not fatal.
func (s *ListScraper) Scrape(ctx context.Context, site Site, categories []string, city string, maxProducts int) (int, error) {
	count := 0
	for _, category := range categories {
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		if maxProducts > 0 && count >= maxProducts {
			break
		}

		pageURL := site.ListingURL(category, city)
		doc, err := s.fetch(ctx, pageURL)
		if err != nil {
			log.Printf("WARN: %s: failed to fetch %s: %v", site.Market, pageURL, err)
			continue
		}

		remaining := 0
		if maxProducts > 0 {
			remaining = maxProducts - count
		}
		count += s.extract(doc, site, category, city, remaining)
	}

	if count == 0 {
		return 0, fmt.Errorf("%s: no products extracted", site.Market)
	}
	return count, nil
}

func (s *ListScraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// extract walks the product cards on one page. maxProducts <= 0 means
// unbounded.
func (s *ListScraper) extract(doc *goquery.Document, site Site, category, city string, maxProducts int) int {
	selectors := site.Selectors
	count := 0

	doc.Find(selectors.Item).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if maxProducts > 0 && count >= maxProducts {
			return false
		}

		name := firstText(item, selectors.Name)
		if name == "" {
			return true
		}

		priceText := firstText(item, selectors.Price)
		price, err := ParsePrice(priceText)
		if err != nil {
			log.Printf("WARN: %s: invalid price format for %s: %q", site.Market, name, priceText)
			return true
		}

		product := storage.NewProduct{
			Name:     name,
			Price:    price,
			Category: category,
			StoreID:  site.Market,
		}
		if quantity := NormalizeQuantity(firstText(item, selectors.Quantity)); quantity != "" {
			product.Quantity = &quantity
		}
		if city != "" {
			c := city
			product.City = &c
		}

		if _, _, err := s.store.UpsertProduct(product); err != nil {
			log.Printf("ERROR: %s: failed to store %s: %v", site.Market, name, err)
			return true
		}
		count++
		return true
	})

	return count
}

// firstText returns the first non-empty, whitespace-normalized text among
// the selectors, searched within item.
func firstText(item *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		text := strings.Join(strings.Fields(item.Find(selector).First().Text()), " ")
		if text != "" {
			return text
		}
	}
	return ""
}
