// Package dispatch resolves market names to their registered scraper entry
// points and invokes them with the correct calling convention.
package dispatch

import (
	"context"
	"fmt"
	"log"

	"github.com/nhuertas/supermercat/markets"
)

// Dispatcher invokes the scraper registered for a market. A single
// market's failure is always absorbed here: scraper errors and panics are
// logged and reported as a zero product count so that a campaign can carry
// on with the next market.
type Dispatcher struct {
	registry *markets.Registry
}

// New creates a dispatcher over the given registry.
func New(registry *markets.Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Run dispatches one scraper invocation and returns the number of products
// it wrote. maxProducts of 0 means "use the descriptor's default cap".
//
// Unknown market names are a no-op returning 0 with a warning. For
// city-aware markets the cities slice is forwarded as-is, including when it
// is empty -- an empty city list never silently falls back to the
// single-location convention.
func (d *Dispatcher) Run(ctx context.Context, marketName string, cities []string, maxProducts int) int {
	descriptor, ok := d.registry.Get(marketName)
	if !ok {
		log.Printf("WARN: Unknown market: %s", marketName)
		return 0
	}

	cap := maxProducts
	if cap <= 0 {
		cap = descriptor.DefaultCap()
	}

	log.Printf("INFO: Starting %s scraper", marketName)

	count, err := invoke(ctx, descriptor, cities, cap)
	if err != nil {
		log.Printf("ERROR: Error running %s: %v", marketName, err)
		return 0
	}
	if count < 0 {
		count = 0
	}

	return count
}

// invoke calls the descriptor's entry point, converting a panic inside a
// scraper into an error so the campaign survives.
func invoke(ctx context.Context, descriptor markets.Descriptor, cities []string, cap int) (count int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &scraperPanicError{market: descriptor.Name, value: r}
		}
	}()

	switch {
	case descriptor.CitySupport:
		return descriptor.Entry.Cities(ctx, cities, cap)
	case descriptor.Entry.Single != nil:
		return descriptor.Entry.Single(ctx, cap)
	default:
		return descriptor.Entry.SingleNoCap(ctx)
	}
}

type scraperPanicError struct {
	market string
	value  any
}

func (e *scraperPanicError) Error() string {
	return fmt.Sprintf("scraper %s panicked: %v", e.market, e.value)
}
