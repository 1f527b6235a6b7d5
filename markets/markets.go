package markets

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Custom errors for registry operations
var (
	ErrDuplicateMarket    = errors.New("market with this name already registered")
	ErrMissingEntryPoint  = errors.New("descriptor has no entry point")
	ErrEntryPointMismatch = errors.New("entry point does not match the descriptor's city support")
)

// CityScraperFunc is the entry point of a city-aware market scraper. It
// receives the target cities and a per-city product cap and returns the
// number of products written to storage.
type CityScraperFunc func(ctx context.Context, cities []string, maxProductsPerCity int) (int, error)

// MarketScraperFunc is the entry point of a single-location market scraper
// that accepts a product cap.
type MarketScraperFunc func(ctx context.Context, maxProducts int) (int, error)

// MarketScraperNoCapFunc is the entry point of a legacy single-location
// scraper that takes no parameters at all.
type MarketScraperNoCapFunc func(ctx context.Context) (int, error)

// EntryPoint is a tagged variant: exactly one of the three fields is set,
// chosen explicitly when the market is registered. This replaces runtime
// signature inspection -- the calling convention is fixed at registration
// time.
type EntryPoint struct {
	Cities      CityScraperFunc
	Single      MarketScraperFunc
	SingleNoCap MarketScraperNoCapFunc
}

// isZero reports whether no variant has been set.
func (e EntryPoint) isZero() bool {
	return e.Cities == nil && e.Single == nil && e.SingleNoCap == nil
}

// DelayRange is the preferred pause between consecutive runs of a market.
type DelayRange struct {
	Min time.Duration
	Max time.Duration
}

// Descriptor describes a market's capabilities: whether the scraper can be
// pointed at individual cities, which categories it exposes, its default
// product caps and its default inter-run delay range. Descriptors are
// immutable once registered.
type Descriptor struct {
	Name        string
	CitySupport bool
	Categories  []string

	// MaxProductsPerCity is the default cap for city-aware markets;
	// MaxProducts is the default cap for single-location markets. Only the
	// one matching CitySupport is meaningful.
	MaxProductsPerCity int
	MaxProducts        int

	DelayBetweenRuns DelayRange

	Entry EntryPoint
}

// DefaultCap returns the descriptor's default product cap for its dispatch
// path.
func (d Descriptor) DefaultCap() int {
	if d.CitySupport {
		return d.MaxProductsPerCity
	}
	return d.MaxProducts
}

// Registry is a read-only lookup of market descriptors, preserving
// registration order. It is populated once at process start and never
// mutated afterwards.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// NewRegistry creates an empty market registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a descriptor to the registry. The entry point variant must
// match the descriptor's city support: city-aware markets carry a Cities
// entry point, single-location markets carry exactly one of Single or
// SingleNoCap.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("market name cannot be empty")
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateMarket, d.Name)
	}
	if d.Entry.isZero() {
		return fmt.Errorf("%w: %s", ErrMissingEntryPoint, d.Name)
	}

	if d.CitySupport {
		if d.Entry.Cities == nil || d.Entry.Single != nil || d.Entry.SingleNoCap != nil {
			return fmt.Errorf("%w: %s is city-aware", ErrEntryPointMismatch, d.Name)
		}
	} else {
		hasSingle := d.Entry.Single != nil
		hasNoCap := d.Entry.SingleNoCap != nil
		if d.Entry.Cities != nil || hasSingle == hasNoCap {
			return fmt.Errorf("%w: %s is single-location", ErrEntryPointMismatch, d.Name)
		}
	}

	r.order = append(r.order, d.Name)
	r.byName[d.Name] = d
	return nil
}

// Get returns the descriptor for a market name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Names returns all registered market names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered markets.
func (r *Registry) Len() int {
	return len(r.order)
}

// Partition splits the given market names into city-aware and
// single-location groups, preserving input order. Names not present in the
// registry are silently dropped.
func (r *Registry) Partition(names []string) (cityAware, single []string) {
	for _, name := range names {
		d, ok := r.byName[name]
		if !ok {
			continue
		}
		if d.CitySupport {
			cityAware = append(cityAware, name)
		} else {
			single = append(single, name)
		}
	}
	return cityAware, single
}
