package markets

import "time"

func seconds(min, max int) DelayRange {
	return DelayRange{
		Min: time.Duration(min) * time.Second,
		Max: time.Duration(max) * time.Second,
	}
}

// DefaultDescriptors returns the built-in table of supported Spanish
// supermarkets and their capabilities. Entry points are intentionally left
// unset; callers bind them to concrete scrapers before registration (see
// scraper.RegisterDefaults).
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:               "carrefour",
			CitySupport:        true,
			Categories:         []string{"alimentacion", "bebidas", "congelados", "frescos"},
			MaxProductsPerCity: 40,
			DelayBetweenRuns:   seconds(15, 25),
		},
		{
			Name:               "mercadona",
			CitySupport:        true,
			Categories:         []string{"alimentacion", "bebidas", "congelados", "frescos"},
			MaxProductsPerCity: 30,
			DelayBetweenRuns:   seconds(10, 20),
		},
		{
			Name:             "elcorte",
			Categories:       []string{"aceites-y-vinagres", "arroz-legumbres-y-pasta", "azucar-cacao-y-edulcorantes"},
			MaxProducts:      100,
			DelayBetweenRuns: seconds(30, 45),
		},
		{
			Name:             "lidl",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      80,
			DelayBetweenRuns: seconds(25, 40),
		},
		{
			Name:             "dia",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      60,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "consum",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      70,
			DelayBetweenRuns: seconds(25, 40),
		},
		{
			Name:             "condisline",
			Categories:       []string{"aceites-y-vinagres", "arroz-legumbres-y-pasta", "conservas"},
			MaxProducts:      50,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "bonpreu",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      60,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "alcampo",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      70,
			DelayBetweenRuns: seconds(25, 40),
		},
		{
			Name:             "bonarea",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      50,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "eroski",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      60,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "caprabo",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      50,
			DelayBetweenRuns: seconds(20, 35),
		},
		{
			Name:             "aldi",
			Categories:       []string{"alimentacion", "bebidas"},
			MaxProducts:      60,
			DelayBetweenRuns: seconds(20, 35),
		},
	}
}
