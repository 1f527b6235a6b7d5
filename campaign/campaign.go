// Package campaign coordinates batches of market scrapers across batches
// of cities, with randomized politeness delays between runs.
package campaign

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/nhuertas/supermercat/markets"
)

// majorCityPopulation is the population threshold above which a city is
// included in the default comprehensive target set.
const majorCityPopulation = 200000

// defaultCityLimit caps the default comprehensive target set.
const defaultCityLimit = 8

// Dispatcher invokes a single market scraper and absorbs its failures.
type Dispatcher interface {
	Run(ctx context.Context, marketName string, cities []string, maxProducts int) int
}

// CityProvider exposes the ordered reference list of cities.
type CityProvider interface {
	MajorCities(minPopulation int) []string
}

// Result summarizes one campaign run.
type Result struct {
	RunID         uuid.UUID     `json:"run_id"`
	Cities        []string      `json:"cities"`
	Markets       []string      `json:"markets"`
	TotalProducts int           `json:"total_products"`
	StartedAt     time.Time     `json:"started_at"`
	Duration      time.Duration `json:"duration"`
}

// Options tunes orchestrator behavior. The zero value uses real sleeps and
// a time-seeded random source; tests inject no-op replacements.
type Options struct {
	// Sleep is called for every inter-market delay. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Rand drives the randomized delay durations. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Orchestrator runs campaigns over the dispatcher. All per-market failures
// are absorbed at the dispatcher boundary; an orchestrator run never
// aborts because a scraper failed.
type Orchestrator struct {
	registry   *markets.Registry
	dispatcher Dispatcher
	cities     CityProvider
	sleep      func(time.Duration)
	rand       *rand.Rand
}

// New creates a campaign orchestrator. opts may be nil.
func New(registry *markets.Registry, dispatcher Dispatcher, cities CityProvider, opts *Options) *Orchestrator {
	o := &Orchestrator{
		registry:   registry,
		dispatcher: dispatcher,
		cities:     cities,
		sleep:      time.Sleep,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if opts != nil {
		if opts.Sleep != nil {
			o.sleep = opts.Sleep
		}
		if opts.Rand != nil {
			o.rand = opts.Rand
		}
	}
	return o
}

// RunComprehensive scrapes a batch of markets across a batch of cities.
//
// A nil cities argument targets the major cities (population above 200k,
// first 8 in source order). A nil markets argument targets every
// registered market; otherwise unknown names are silently dropped. The
// reported total is the sum of all individual dispatch results, zeros from
// failed dispatches included.
func (o *Orchestrator) RunComprehensive(ctx context.Context, cityNames, marketNames []string, maxProductsPerCity, maxProductsPerMarket int) *Result {
	startedAt := time.Now()

	targetCities := cityNames
	if targetCities == nil {
		major := o.cities.MajorCities(majorCityPopulation)
		if len(major) > defaultCityLimit {
			major = major[:defaultCityLimit]
		}
		targetCities = major
	}

	targetMarkets := marketNames
	if targetMarkets == nil {
		targetMarkets = o.registry.Names()
	}
	cityMarkets, singleMarkets := o.registry.Partition(targetMarkets)
	resolved := append(append([]string{}, cityMarkets...), singleMarkets...)

	log.Printf("INFO: Starting comprehensive run: %d cities, %d markets", len(targetCities), len(resolved))

	total := 0

	// City-aware markets each get the full city set.
	for i, market := range cityMarkets {
		count := o.dispatcher.Run(ctx, market, targetCities, maxProductsPerCity)
		total += count
		log.Printf("INFO: %s: %d products", market, count)

		if i < len(cityMarkets)-1 {
			o.pause(ctx, 30*time.Second, 60*time.Second)
		}
	}

	// Single-location markets use their registry-declared delay range.
	for i, market := range singleMarkets {
		count := o.dispatcher.Run(ctx, market, nil, maxProductsPerMarket)
		total += count
		log.Printf("INFO: %s: %d products", market, count)

		if i < len(singleMarkets)-1 {
			descriptor, _ := o.registry.Get(market)
			o.pause(ctx, descriptor.DelayBetweenRuns.Min, descriptor.DelayBetweenRuns.Max)
		}
	}

	result := &Result{
		RunID:         uuid.New(),
		Cities:        targetCities,
		Markets:       resolved,
		TotalProducts: total,
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
	}

	log.Printf("INFO: Comprehensive run complete: %d products in %v", result.TotalProducts, result.Duration)
	return result
}

// RunCity scrapes a batch of markets against one city, with shorter delays
// than a comprehensive run. Used for targeted manual runs. A nil markets
// argument targets every registered market, as in RunComprehensive.
func (o *Orchestrator) RunCity(ctx context.Context, city string, marketNames []string, maxProducts int) *Result {
	startedAt := time.Now()

	targetMarkets := marketNames
	if targetMarkets == nil {
		targetMarkets = o.registry.Names()
	}
	cityMarkets, singleMarkets := o.registry.Partition(targetMarkets)
	resolved := append(append([]string{}, cityMarkets...), singleMarkets...)

	log.Printf("INFO: Scraping %s with %d markets", city, len(resolved))

	total := 0

	for i, market := range cityMarkets {
		count := o.dispatcher.Run(ctx, market, []string{city}, maxProducts)
		total += count
		log.Printf("INFO: %s for %s: %d products", market, city, count)

		if i < len(cityMarkets)-1 {
			o.pause(ctx, 10*time.Second, 20*time.Second)
		}
	}

	for i, market := range singleMarkets {
		count := o.dispatcher.Run(ctx, market, nil, maxProducts)
		total += count
		log.Printf("INFO: %s: %d products", market, count)

		if i < len(singleMarkets)-1 {
			o.pause(ctx, 15*time.Second, 25*time.Second)
		}
	}

	result := &Result{
		RunID:         uuid.New(),
		Cities:        []string{city},
		Markets:       resolved,
		TotalProducts: total,
		StartedAt:     startedAt,
		Duration:      time.Since(startedAt),
	}

	log.Printf("INFO: %s scraping complete: %d products", city, result.TotalProducts)
	return result
}

// pause sleeps for a uniformly random duration in [min, max]. The jitter
// keeps consecutive runs from hammering any one site in a recognizable
// rhythm.
func (o *Orchestrator) pause(ctx context.Context, min, max time.Duration) {
	if ctx.Err() != nil {
		return
	}
	delay := min
	if max > min {
		delay = min + time.Duration(o.rand.Int63n(int64(max-min)))
	}
	log.Printf("INFO: Waiting %v before next market", delay.Round(100*time.Millisecond))
	o.sleep(delay)
}
