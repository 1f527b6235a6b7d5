// Package scraper extracts product listings from supermarket websites and
// feeds them into the product store. Extraction is selector-driven; each
// site carries its own CSS selectors with per-field fallbacks for markup
// variants.
package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// SelectorConfig defines how to extract products from a listing page. The
// per-field selector lists are tried in order; the first one that matches
// a non-empty value wins.
type SelectorConfig struct {
	Item     string   `json:"item_selector"`
	Name     []string `json:"name_selectors"`
	Price    []string `json:"price_selectors"`
	Quantity []string `json:"quantity_selectors,omitempty"`
	NextPage string   `json:"next_page_selector,omitempty"`
	MaxPages int      `json:"max_pages,omitempty"` // 0 means 1
}

// Site is the scraping configuration for one market's storefront.
// CityParam names the query parameter that scopes listings to a city; it
// is empty for single-location storefronts.
type Site struct {
	Market    string
	BaseURL   string
	CityParam string
	Selectors SelectorConfig
}

// ListingURL builds the listing page URL for a category, scoped to a city
// when the site supports it.
func (s Site) ListingURL(category, city string) string {
	u := fmt.Sprintf("%s/%s", strings.TrimRight(s.BaseURL, "/"), strings.TrimLeft(category, "/"))
	if city != "" && s.CityParam != "" {
		u += "?" + s.CityParam + "=" + url.QueryEscape(strings.ToLower(city))
	}
	return u
}

// defaultSelectors covers the common product-card markup shared by most of
// the supported storefronts.
func defaultSelectors() SelectorConfig {
	return SelectorConfig{
		Item:     ".product-card, .product-item, article.product",
		Name:     []string{".product-card__title", ".product-name", "h3", "h2"},
		Price:    []string{".product-card__price", ".price", ".product-price"},
		Quantity: []string{".product-card__quantity", ".quantity", ".format"},
		NextPage: "a.next, li.next a, a[rel=next]",
		MaxPages: 5,
	}
}

// DefaultSites returns the built-in storefront table, keyed by market name.
// Markets without explicit selectors use defaultSelectors.
func DefaultSites() map[string]Site {
	sites := map[string]Site{
		"carrefour": {
			BaseURL:   "https://www.carrefour.es",
			CityParam: "city",
			Selectors: SelectorConfig{
				Item:     ".product-card",
				Name:     []string{".product-card__title", "h2.product-card__title-link"},
				Price:    []string{".product-card__price", ".product-card__price--current"},
				Quantity: []string{".product-card__format"},
				NextPage: "a.pagination__next",
				MaxPages: 5,
			},
		},
		"mercadona": {
			BaseURL:   "https://tienda.mercadona.es",
			CityParam: "wh",
			Selectors: SelectorConfig{
				Item:     ".product-cell",
				Name:     []string{".product-cell__description-name", "h4"},
				Price:    []string{".product-price__unit-price", ".product-price"},
				Quantity: []string{".product-format", ".footnote1-r"},
			},
		},
		"elcorte": {
			BaseURL: "https://www.elcorteingles.es/supermercado",
			Selectors: SelectorConfig{
				Item:     ".product_tile",
				Name:     []string{".product_tile-description", "h3"},
				Price:    []string{".prices-price._current", ".price"},
				Quantity: []string{".product_tile-format"},
				NextPage: "a.pagination-next",
				MaxPages: 5,
			},
		},
		"lidl": {
			BaseURL: "https://www.lidl.es",
			Selectors: SelectorConfig{
				Item:     ".product-grid-box-tile",
				Name:     []string{".product-grid-box__title", "h3"},
				Price:    []string{".m-price__price", ".price"},
				Quantity: []string{".product-grid-box__desc"},
				NextPage: "a.s-load-more__button",
				MaxPages: 5,
			},
		},
		"dia": {
			BaseURL: "https://www.dia.es",
			Selectors: SelectorConfig{
				Item:     ".search-product-card",
				Name:     []string{".search-product-card__product-name", "h2"},
				Price:    []string{".search-product-card__active-price", ".price"},
				Quantity: []string{".search-product-card__product-format"},
				NextPage: "a.pagination__next",
				MaxPages: 5,
			},
		},
		"consum": {
			BaseURL: "https://tienda.consum.es",
		},
		"condisline": {
			BaseURL: "https://www.condisline.com",
		},
		"bonpreu": {
			BaseURL: "https://www.compraonline.bonpreuesclat.cat",
			Selectors: SelectorConfig{
				Item:     "[data-test=product-card]",
				Name:     []string{"[data-test=product-card-name]", "h3"},
				Price:    []string{"[data-test=product-card-price]", ".price"},
				Quantity: []string{"[data-test=product-card-size]"},
			},
		},
		"alcampo": {
			BaseURL: "https://www.compraonline.alcampo.es",
			Selectors: SelectorConfig{
				Item:     "[data-test=product-card]",
				Name:     []string{"[data-test=product-card-name]", "h3"},
				Price:    []string{".price > span", "[data-test=product-card-price]"},
				Quantity: []string{"[data-test=product-card-size]"},
			},
		},
		"bonarea": {
			BaseURL: "https://www.bonarea.com",
			Selectors: SelectorConfig{
				Item:     ".product-box",
				Name:     []string{".product-box__name", "h3"},
				Price:    []string{".product-box__price", ".price"},
				Quantity: []string{".product-box__format"},
			},
		},
		"eroski": {
			BaseURL: "https://supermercado.eroski.es",
		},
		"caprabo": {
			BaseURL: "https://www.capraboacasa.com",
		},
		"aldi": {
			BaseURL: "https://www.aldi.es",
			Selectors: SelectorConfig{
				Item:     ".mod-article-tile",
				Name:     []string{".mod-article-tile__title", "h3"},
				Price:    []string{".price__wrapper", ".price"},
				Quantity: []string{".price__unit"},
			},
		},
	}

	for name, site := range sites {
		site.Market = name
		if site.Selectors.Item == "" {
			site.Selectors = defaultSelectors()
		}
		if site.Selectors.MaxPages < 1 {
			site.Selectors.MaxPages = 1
		}
		sites[name] = site
	}
	return sites
}
