package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nhuertas/supermercat/storage"
)

// progress is the resumable cursor persisted between enrichment runs.
type progress struct {
	LastProcessedID *uuid.UUID `json:"last_processed_id"`
	Timestamp       *time.Time `json:"timestamp"`
}

// Enricher walks products missing nutrition facts, searches OpenFoodFacts
// for each and writes accepted matches back. Progress is saved to a JSON
// file after every product so an interrupted run resumes where it left
// off.
type Enricher struct {
	store        *storage.Store
	client       *Client
	progressPath string

	// pause between searches, shortened in tests
	pause func()
}

// Stats summarizes one enrichment run.
type Stats struct {
	Processed int
	Enriched  int
	Skipped   int
	Failed    int
}

// NewEnricher creates an enricher over store using client, persisting its
// cursor at progressPath.
func NewEnricher(store *storage.Store, client *Client, progressPath string) *Enricher {
	return &Enricher{
		store:        store,
		client:       client,
		progressPath: progressPath,
		pause:        func() { time.Sleep(5 * time.Second) },
	}
}

// Run enriches up to limit products missing nutrition facts (0 means all).
// Products at or before the saved cursor are skipped. Individual failures
// are logged and counted, never fatal.
func (e *Enricher) Run(ctx context.Context, limit int) (Stats, error) {
	var stats Stats

	cursor := e.loadProgress()
	resuming := cursor.LastProcessedID != nil
	if resuming {
		log.Printf("INFO: Resuming enrichment after product %s", cursor.LastProcessedID)
	}

	products, err := e.store.ListProducts(storage.ProductFilter{MissingFacts: true})
	if err != nil {
		return stats, fmt.Errorf("failed to list products: %w", err)
	}

	for _, product := range products {
		if resuming {
			if product.ID == *cursor.LastProcessedID {
				resuming = false
			}
			continue
		}
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if limit > 0 && stats.Processed >= limit {
			break
		}
		stats.Processed++

		if err := e.enrichOne(ctx, product); err != nil {
			log.Printf("WARN: Failed to enrich %s: %v", product.Name, err)
			stats.Failed++
		} else {
			stats.Enriched++
		}

		e.saveProgress(product.ID)
		if stats.Processed < len(products) {
			e.pause()
		}
	}

	// A cursor past the end means the previous run finished everything;
	// ignore it rather than silently doing nothing forever.
	if resuming {
		stats.Skipped = len(products)
		log.Printf("WARN: Saved cursor not found among %d pending products, clearing it", len(products))
		e.saveProgress(uuid.Nil)
	}

	log.Printf("INFO: Enrichment done: %d processed, %d enriched, %d failed", stats.Processed, stats.Enriched, stats.Failed)
	return stats, nil
}

func (e *Enricher) enrichOne(ctx context.Context, product storage.Product) error {
	candidates, err := e.client.Search(ctx, product.Name)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates")
	}

	match, ok := BestMatch(product.Name, candidates)
	if !ok {
		return fmt.Errorf("no candidate above similarity threshold")
	}

	var imageURL *string
	if match.ImageURL != "" {
		imageURL = &match.ImageURL
	}
	if err := e.store.UpdateProductEnrichment(product.ID, imageURL, match.Facts()); err != nil {
		return fmt.Errorf("failed to store enrichment: %w", err)
	}

	log.Printf("INFO: Enriched %s from %q", product.Name, match.ProductName)
	return nil
}

func (e *Enricher) loadProgress() progress {
	var cursor progress

	data, err := os.ReadFile(e.progressPath)
	if err != nil {
		return cursor
	}
	if err := json.Unmarshal(data, &cursor); err != nil {
		log.Printf("WARN: Ignoring unreadable progress file %s: %v", e.progressPath, err)
		return progress{}
	}
	if cursor.LastProcessedID != nil && *cursor.LastProcessedID == uuid.Nil {
		cursor.LastProcessedID = nil
	}
	return cursor
}

func (e *Enricher) saveProgress(id uuid.UUID) {
	now := time.Now()
	cursor := progress{Timestamp: &now}
	if id != uuid.Nil {
		cursor.LastProcessedID = &id
	}

	data, err := json.Marshal(cursor)
	if err == nil {
		err = os.WriteFile(e.progressPath, data, 0o644)
	}
	if err != nil {
		log.Printf("WARN: Failed to save progress: %v", err)
	}
}
