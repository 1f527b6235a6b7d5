package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/nhuertas/supermercat/markets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: registry with one city-aware and one single-location market
// whose entry points record their invocations.
type spyCall struct {
	cities []string
	cap    int
}

func createTestRegistry(t *testing.T, calls map[string][]spyCall) *markets.Registry {
	r := markets.NewRegistry()

	require.NoError(t, r.Register(markets.Descriptor{
		Name:               "mercadona",
		CitySupport:        true,
		MaxProductsPerCity: 30,
		Entry: markets.EntryPoint{
			Cities: func(ctx context.Context, cities []string, maxPerCity int) (int, error) {
				calls["mercadona"] = append(calls["mercadona"], spyCall{cities: cities, cap: maxPerCity})
				return 5, nil
			},
		},
	}))

	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "lidl",
		MaxProducts: 80,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				calls["lidl"] = append(calls["lidl"], spyCall{cap: maxProducts})
				return 7, nil
			},
		},
	}))

	require.NoError(t, r.Register(markets.Descriptor{
		Name: "condisline",
		Entry: markets.EntryPoint{
			SingleNoCap: func(ctx context.Context) (int, error) {
				calls["condisline"] = append(calls["condisline"], spyCall{})
				return 3, nil
			},
		},
	}))

	return r
}

func TestRun_UnknownMarketReturnsZero(t *testing.T) {
	d := New(markets.NewRegistry())

	assert.NotPanics(t, func() {
		count := d.Run(context.Background(), "nonexistent", nil, 10)
		assert.Equal(t, 0, count)
	})
}

func TestRun_CityAwareMarket(t *testing.T) {
	calls := make(map[string][]spyCall)
	d := New(createTestRegistry(t, calls))

	count := d.Run(context.Background(), "mercadona", []string{"Madrid", "Valencia"}, 10)
	assert.Equal(t, 5, count)

	require.Len(t, calls["mercadona"], 1)
	assert.Equal(t, []string{"Madrid", "Valencia"}, calls["mercadona"][0].cities)
	assert.Equal(t, 10, calls["mercadona"][0].cap)
}

func TestRun_CityAwareMarketWithEmptyCities(t *testing.T) {
	calls := make(map[string][]spyCall)
	d := New(createTestRegistry(t, calls))

	// Empty city list still goes down the city-aware path
	d.Run(context.Background(), "mercadona", nil, 10)

	require.Len(t, calls["mercadona"], 1)
	assert.Empty(t, calls["mercadona"][0].cities)
	assert.Empty(t, calls["lidl"], "must not fall back to the single-location convention")
}

func TestRun_SingleLocationMarket(t *testing.T) {
	calls := make(map[string][]spyCall)
	d := New(createTestRegistry(t, calls))

	count := d.Run(context.Background(), "lidl", nil, 20)
	assert.Equal(t, 7, count)
	require.Len(t, calls["lidl"], 1)
	assert.Equal(t, 20, calls["lidl"][0].cap)
}

func TestRun_SingleLocationNoCapMarket(t *testing.T) {
	calls := make(map[string][]spyCall)
	d := New(createTestRegistry(t, calls))

	count := d.Run(context.Background(), "condisline", nil, 99)
	assert.Equal(t, 3, count)
	assert.Len(t, calls["condisline"], 1)
}

func TestRun_ZeroCapUsesRegistryDefault(t *testing.T) {
	calls := make(map[string][]spyCall)
	d := New(createTestRegistry(t, calls))

	d.Run(context.Background(), "mercadona", []string{"Madrid"}, 0)
	require.Len(t, calls["mercadona"], 1)
	assert.Equal(t, 30, calls["mercadona"][0].cap)

	d.Run(context.Background(), "lidl", nil, 0)
	require.Len(t, calls["lidl"], 1)
	assert.Equal(t, 80, calls["lidl"][0].cap)
}

func TestRun_ScraperErrorReturnsZero(t *testing.T) {
	r := markets.NewRegistry()
	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "dia",
		MaxProducts: 60,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				return 0, errors.New("selector not found")
			},
		},
	}))

	count := New(r).Run(context.Background(), "dia", nil, 10)
	assert.Equal(t, 0, count)
}

func TestRun_ScraperPanicIsAbsorbed(t *testing.T) {
	r := markets.NewRegistry()
	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "aldi",
		MaxProducts: 60,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				panic("boom")
			},
		},
	}))

	assert.NotPanics(t, func() {
		count := New(r).Run(context.Background(), "aldi", nil, 10)
		assert.Equal(t, 0, count)
	})
}

func TestRun_NegativeCountClampedToZero(t *testing.T) {
	r := markets.NewRegistry()
	require.NoError(t, r.Register(markets.Descriptor{
		Name:        "eroski",
		MaxProducts: 60,
		Entry: markets.EntryPoint{
			Single: func(ctx context.Context, maxProducts int) (int, error) {
				return -4, nil
			},
		},
	}))

	assert.Equal(t, 0, New(r).Run(context.Background(), "eroski", nil, 10))
}
