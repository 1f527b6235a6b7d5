package schedule

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CityRotationConfig controls which cities are in rotation on a given day.
type CityRotationConfig struct {
	Enabled      bool     `yaml:"enabled"`
	MajorCities  []string `yaml:"major_cities"`
	MinorCities  []string `yaml:"minor_cities"`
	RotationDays int      `yaml:"rotation_days"`
}

// MarketSchedule is the recurring schedule for one market. Day is only
// meaningful for weekly schedules and defaults to monday. Zero caps mean
// "use the registry default".
type MarketSchedule struct {
	Frequency          string `yaml:"frequency"` // "daily" or "weekly"
	Day                string `yaml:"day,omitempty"`
	Time               string `yaml:"time"` // "HH:MM"
	MaxProductsPerCity int    `yaml:"max_products_per_city,omitempty"`
	MaxProducts        int    `yaml:"max_products,omitempty"`
}

// ComprehensiveConfig controls the weekly full-campaign run.
type ComprehensiveConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Frequency          string `yaml:"frequency"`
	Day                string `yaml:"day"`
	Time               string `yaml:"time"`
	MaxCities          int    `yaml:"max_cities"`
	MaxProductsPerCity int    `yaml:"max_products_per_city"`
}

// Config is the persisted scheduler configuration. It survives restarts;
// everything else about the scheduler is in-memory only.
type Config struct {
	CityRotation      CityRotationConfig        `yaml:"city_rotation"`
	MarketSchedules   map[string]MarketSchedule `yaml:"market_schedules"`
	ComprehensiveRuns ComprehensiveConfig       `yaml:"comprehensive_runs"`
}

// partialConfig mirrors Config with optional sections, so a stored file
// can be merged over the defaults shallowly: a section present in the file
// replaces the default section wholesale.
type partialConfig struct {
	CityRotation      *CityRotationConfig       `yaml:"city_rotation"`
	MarketSchedules   map[string]MarketSchedule `yaml:"market_schedules"`
	ComprehensiveRuns *ComprehensiveConfig      `yaml:"comprehensive_runs"`
}

// DefaultConfig returns the built-in scheduling defaults.
func DefaultConfig() Config {
	return Config{
		CityRotation: CityRotationConfig{
			Enabled:      true,
			MajorCities:  []string{"Madrid", "Barcelona", "Valencia", "Sevilla", "Bilbao", "Málaga", "Zaragoza"},
			MinorCities:  []string{"Murcia", "Palma", "Las Palmas", "Alicante", "Córdoba", "Valladolid"},
			RotationDays: 7,
		},
		MarketSchedules: map[string]MarketSchedule{
			"carrefour":  {Frequency: "daily", Time: "09:00", MaxProductsPerCity: 40},
			"mercadona":  {Frequency: "daily", Time: "10:30", MaxProductsPerCity: 30},
			"lidl":       {Frequency: "daily", Time: "12:00", MaxProducts: 80},
			"dia":        {Frequency: "daily", Time: "13:30", MaxProducts: 60},
			"consum":     {Frequency: "daily", Time: "15:00", MaxProducts: 70},
			"elcorte":    {Frequency: "daily", Time: "16:30", MaxProducts: 100},
			"condisline": {Frequency: "daily", Time: "18:00", MaxProducts: 50},
			"bonpreu":    {Frequency: "daily", Time: "19:30", MaxProducts: 60},
			"alcampo":    {Frequency: "daily", Time: "21:00", MaxProducts: 70},
		},
		ComprehensiveRuns: ComprehensiveConfig{
			Enabled:            true,
			Frequency:          "weekly",
			Day:                "sunday",
			Time:               "08:00",
			MaxCities:          5,
			MaxProductsPerCity: 25,
		},
	}
}

// LoadConfig reads the persisted configuration and merges it over the
// built-in defaults. The merge is shallow: each top-level section found in
// the file overrides the matching default section wholesale. A missing
// file is not an error -- the defaults are used verbatim.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("failed to read schedule config: %w", err)
	}

	var stored partialConfig
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return config, fmt.Errorf("failed to parse schedule config: %w", err)
	}

	if stored.CityRotation != nil {
		config.CityRotation = *stored.CityRotation
	}
	if stored.MarketSchedules != nil {
		config.MarketSchedules = stored.MarketSchedules
	}
	if stored.ComprehensiveRuns != nil {
		config.ComprehensiveRuns = *stored.ComprehensiveRuns
	}

	return config, nil
}

// Save writes the whole configuration document to path.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schedule config: %w", err)
	}

	return nil
}

// CitiesForRotation returns the cities in rotation for a day of week
// (0=Monday .. 6=Sunday). It is a pure function of the configuration and
// the day: five weekdays of major cities, then a major/minor mix.
func (c Config) CitiesForRotation(dayOfWeek int) []string {
	rotation := c.CityRotation

	if !rotation.Enabled {
		return firstN(rotation.MajorCities, 5)
	}

	rotationDays := rotation.RotationDays
	if rotationDays < 1 {
		rotationDays = 1
	}
	position := dayOfWeek % rotationDays

	if position < 5 {
		return firstN(rotation.MajorCities, 5)
	}

	cities := firstN(rotation.MajorCities, 3)
	return append(cities, firstN(rotation.MinorCities, 2)...)
}

func firstN(values []string, n int) []string {
	if len(values) < n {
		n = len(values)
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}
