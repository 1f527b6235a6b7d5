package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nhuertas/supermercat/storage"
)

const searchURL = "https://world.openfoodfacts.org/cgi/search.pl"

// Candidate is one OpenFoodFacts search result.
type Candidate struct {
	ProductName string     `json:"product_name"`
	ImageURL    string     `json:"image_front_url"`
	Nutriments  Nutriments `json:"nutriments"`
}

// Nutriments carries the per-100g values OpenFoodFacts reports.
type Nutriments struct {
	EnergyKcal    *float64 `json:"energy-kcal_100g"`
	Fat           *float64 `json:"fat_100g"`
	SaturatedFat  *float64 `json:"saturated-fat_100g"`
	Carbohydrates *float64 `json:"carbohydrates_100g"`
	Sugars        *float64 `json:"sugars_100g"`
	Proteins      *float64 `json:"proteins_100g"`
	Salt          *float64 `json:"salt_100g"`
}

type searchResponse struct {
	Products []Candidate `json:"products"`
}

// Client searches OpenFoodFacts. It retries transient failures with
// backoff and never sends queries that cleaning reduced below three
// characters.
type Client struct {
	resty *resty.Client
}

// NewClient creates an OpenFoodFacts search client.
func NewClient() *Client {
	client := resty.New()
	client.SetHeader("User-Agent", "supermercat/1.0 (Spanish supermarket price tracker)")
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(5 * time.Second)
	client.SetRetryMaxWaitTime(60 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		code := r.StatusCode()
		return code == 429 || code >= 500
	})
	return &Client{resty: client}
}

// HTTPClient exposes the underlying transport, primarily for tests.
func (c *Client) HTTPClient() *resty.Client {
	return c.resty
}

// Search queries OpenFoodFacts for a product name and returns up to five
// candidates. The name is cleaned first; an over-generic query returns no
// candidates without hitting the network.
func (c *Client) Search(ctx context.Context, name string) ([]Candidate, error) {
	query := CleanProductName(name)
	if len(query) < 3 {
		return nil, nil
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
			"page_size":     "5",
		}).
		Get(searchURL)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts search failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("openfoodfacts search failed: HTTP %d", resp.StatusCode())
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode openfoodfacts response: %w", err)
	}
	return result.Products, nil
}

// Facts converts the candidate's nutriments into storage form.
func (c Candidate) Facts() *storage.NutritionFacts {
	return &storage.NutritionFacts{
		EnergyKcal:    c.Nutriments.EnergyKcal,
		Fat:           c.Nutriments.Fat,
		SaturatedFat:  c.Nutriments.SaturatedFat,
		Carbohydrates: c.Nutriments.Carbohydrates,
		Sugars:        c.Nutriments.Sugars,
		Proteins:      c.Nutriments.Proteins,
		Salt:          c.Nutriments.Salt,
		Source:        "openfoodfacts",
	}
}
