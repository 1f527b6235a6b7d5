package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhuertas/supermercat/dispatch"
	"github.com/nhuertas/supermercat/markets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDispatcher returns fixed counts per market and records every call.
type stubDispatcher struct {
	counts map[string]int
	calls  []dispatchCall
}

type dispatchCall struct {
	market string
	cities []string
	cap    int
}

func (d *stubDispatcher) Run(ctx context.Context, marketName string, cities []string, maxProducts int) int {
	d.calls = append(d.calls, dispatchCall{market: marketName, cities: cities, cap: maxProducts})
	return d.counts[marketName]
}

// stubCities is a fixed city provider.
type stubCities struct {
	names []string
}

func (s *stubCities) MajorCities(minPopulation int) []string {
	return s.names
}

func noEntry(citySupport bool) markets.EntryPoint {
	if citySupport {
		return markets.EntryPoint{
			Cities: func(ctx context.Context, cities []string, maxPerCity int) (int, error) { return 0, nil },
		}
	}
	return markets.EntryPoint{
		Single: func(ctx context.Context, maxProducts int) (int, error) { return 0, nil },
	}
}

// createTestRegistry builds two city-aware markets (A, B) and two
// single-location markets (C, D).
func createTestRegistry(t *testing.T) *markets.Registry {
	r := markets.NewRegistry()
	delay := markets.DelayRange{Min: 20 * time.Second, Max: 35 * time.Second}

	require.NoError(t, r.Register(markets.Descriptor{Name: "A", CitySupport: true, MaxProductsPerCity: 30, Entry: noEntry(true)}))
	require.NoError(t, r.Register(markets.Descriptor{Name: "B", CitySupport: true, MaxProductsPerCity: 30, Entry: noEntry(true)}))
	require.NoError(t, r.Register(markets.Descriptor{Name: "C", MaxProducts: 50, DelayBetweenRuns: delay, Entry: noEntry(false)}))
	require.NoError(t, r.Register(markets.Descriptor{Name: "D", MaxProducts: 50, DelayBetweenRuns: delay, Entry: noEntry(false)}))
	return r
}

func createTestOrchestrator(t *testing.T, dispatcher Dispatcher, cities CityProvider) *Orchestrator {
	if cities == nil {
		cities = &stubCities{}
	}
	return New(createTestRegistry(t), dispatcher, cities, &Options{
		Sleep: func(time.Duration) {},
	})
}

func TestRunComprehensive_TotalIsSumOfDispatchResults(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{"A": 5, "B": 7, "C": 3, "D": 0}}
	o := createTestOrchestrator(t, dispatcher, nil)

	result := o.RunComprehensive(context.Background(),
		[]string{"Madrid", "Barcelona"}, []string{"A", "B", "C", "D"}, 10, 20)

	assert.Equal(t, 15, result.TotalProducts)
	assert.Equal(t, []string{"Madrid", "Barcelona"}, result.Cities)
	assert.Equal(t, []string{"A", "B", "C", "D"}, result.Markets)
	require.Len(t, dispatcher.calls, 4)

	// City-aware markets get the full city set and the per-city cap
	assert.Equal(t, dispatchCall{market: "A", cities: []string{"Madrid", "Barcelona"}, cap: 10}, dispatcher.calls[0])
	assert.Equal(t, dispatchCall{market: "B", cities: []string{"Madrid", "Barcelona"}, cap: 10}, dispatcher.calls[1])

	// Single-location markets get no cities and the per-market cap
	assert.Equal(t, dispatchCall{market: "C", cities: nil, cap: 20}, dispatcher.calls[2])
	assert.Equal(t, dispatchCall{market: "D", cities: nil, cap: 20}, dispatcher.calls[3])
}

func TestRunComprehensive_DefaultsToMajorCitiesTruncatedToEight(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{}}
	provider := &stubCities{names: []string{
		"Madrid", "Barcelona", "Valencia", "Sevilla", "Zaragoza",
		"Málaga", "Murcia", "Palma", "Las Palmas", "Bilbao",
	}}
	o := createTestOrchestrator(t, dispatcher, provider)

	result := o.RunComprehensive(context.Background(), nil, []string{"A"}, 10, 20)

	assert.Len(t, result.Cities, 8)
	assert.Equal(t, "Madrid", result.Cities[0])
	assert.Equal(t, "Palma", result.Cities[7])
}

func TestRunComprehensive_DefaultsToAllRegisteredMarkets(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{}}
	o := createTestOrchestrator(t, dispatcher, nil)

	result := o.RunComprehensive(context.Background(), []string{"Madrid"}, nil, 10, 20)

	assert.Equal(t, []string{"A", "B", "C", "D"}, result.Markets)
	assert.Len(t, dispatcher.calls, 4)
}

func TestRunComprehensive_DropsUnknownMarkets(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{}}
	o := createTestOrchestrator(t, dispatcher, nil)

	result := o.RunComprehensive(context.Background(),
		[]string{"Madrid"}, []string{"A", "nonexistent", "C"}, 10, 20)

	assert.Equal(t, []string{"A", "C"}, result.Markets)
	assert.Len(t, dispatcher.calls, 2)
}

func TestRunComprehensive_FailedMarketDoesNotStopCampaign(t *testing.T) {
	// Real dispatcher over a registry whose first market always fails.
	r := markets.NewRegistry()
	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "broken",
		MaxProducts: 50,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				return 0, errors.New("site changed its markup again")
			},
		},
	}))
	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "working",
		MaxProducts: 50,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				return 9, nil
			},
		},
	}))

	o := New(r, dispatch.New(r), &stubCities{}, &Options{Sleep: func(time.Duration) {}})
	result := o.RunComprehensive(context.Background(), []string{"Madrid"}, nil, 10, 20)

	assert.Equal(t, 9, result.TotalProducts, "the failure counts as zero, the rest still runs")
}

func TestRunComprehensive_SleepsBetweenMarketsButNotAfterLast(t *testing.T) {
	var slept []time.Duration
	dispatcher := &stubDispatcher{counts: map[string]int{}}
	o := New(createTestRegistry(t), dispatcher, &stubCities{}, &Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})

	o.RunComprehensive(context.Background(), []string{"Madrid"}, []string{"A", "B", "C", "D"}, 10, 20)

	// One delay between the two city-aware markets, one between the two
	// single-location markets.
	require.Len(t, slept, 2)
	assert.GreaterOrEqual(t, slept[0], 30*time.Second)
	assert.LessOrEqual(t, slept[0], 60*time.Second)
	// Single-location delay comes from the registry range (20-35s)
	assert.GreaterOrEqual(t, slept[1], 20*time.Second)
	assert.LessOrEqual(t, slept[1], 35*time.Second)
}

func TestRunCity_DispatchConventions(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{"A": 4, "C": 2}}
	o := createTestOrchestrator(t, dispatcher, nil)

	result := o.RunCity(context.Background(), "Valencia", []string{"A", "C"}, 10)

	assert.Equal(t, 6, result.TotalProducts)
	require.Len(t, dispatcher.calls, 2)
	assert.Equal(t, dispatchCall{market: "A", cities: []string{"Valencia"}, cap: 10}, dispatcher.calls[0])
	assert.Equal(t, dispatchCall{market: "C", cities: nil, cap: 10}, dispatcher.calls[1])
}

func TestRunCity_DefaultsToAllRegisteredMarkets(t *testing.T) {
	dispatcher := &stubDispatcher{counts: map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}}
	o := createTestOrchestrator(t, dispatcher, nil)

	result := o.RunCity(context.Background(), "Valencia", nil, 10)

	assert.Equal(t, []string{"A", "B", "C", "D"}, result.Markets)
	assert.Equal(t, 10, result.TotalProducts)
	require.Len(t, dispatcher.calls, 4)
	assert.Equal(t, []string{"Valencia"}, dispatcher.calls[0].cities)
}

func TestRunCity_ShorterDelays(t *testing.T) {
	var slept []time.Duration
	dispatcher := &stubDispatcher{counts: map[string]int{}}
	o := New(createTestRegistry(t), dispatcher, &stubCities{}, &Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})

	o.RunCity(context.Background(), "Valencia", []string{"A", "B", "C", "D"}, 10)

	require.Len(t, slept, 2)
	assert.GreaterOrEqual(t, slept[0], 10*time.Second)
	assert.LessOrEqual(t, slept[0], 20*time.Second)
	assert.GreaterOrEqual(t, slept[1], 15*time.Second)
	assert.LessOrEqual(t, slept[1], 25*time.Second)
}
