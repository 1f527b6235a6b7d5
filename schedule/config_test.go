package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "schedule.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), config)
}

func TestLoadConfig_StoredSectionReplacesDefaultWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	stored := `
market_schedules:
  lidl:
    frequency: daily
    time: "07:00"
    max_products: 40
`
	require.NoError(t, os.WriteFile(path, []byte(stored), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	// The stored market_schedules section replaces the whole default map:
	// no trace of the default nine markets remains.
	require.Len(t, config.MarketSchedules, 1)
	assert.Equal(t, "07:00", config.MarketSchedules["lidl"].Time)

	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().CityRotation, config.CityRotation)
	assert.Equal(t, DefaultConfig().ComprehensiveRuns, config.ComprehensiveRuns)
}

func TestLoadConfig_InvalidFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("market_schedules: not a map"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.yaml")

	config := DefaultConfig()
	config.CityRotation.RotationDays = 5
	config.ComprehensiveRuns.Day = "wednesday"
	require.NoError(t, config.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.CityRotation.RotationDays)
	assert.Equal(t, "wednesday", loaded.ComprehensiveRuns.Day)
}

func TestCitiesForRotation_IsPure(t *testing.T) {
	config := DefaultConfig()

	for rotationDays := 1; rotationDays <= 10; rotationDays++ {
		config.CityRotation.RotationDays = rotationDays
		for day := 0; day <= 6; day++ {
			first := config.CitiesForRotation(day)
			second := config.CitiesForRotation(day)
			assert.Equal(t, first, second, "rotationDays=%d day=%d", rotationDays, day)
		}
	}
}

func TestCitiesForRotation_WeeklyCycle(t *testing.T) {
	config := DefaultConfig()
	config.CityRotation.RotationDays = 7

	majors := config.CityRotation.MajorCities
	minors := config.CityRotation.MinorCities

	// Days 0-4: the first five major cities in configured order
	for day := 0; day <= 4; day++ {
		assert.Equal(t, majors[:5], config.CitiesForRotation(day), "day %d", day)
	}

	// Days 5-6: first three major cities followed by first two minor cities
	expected := append(append([]string{}, majors[:3]...), minors[:2]...)
	for day := 5; day <= 6; day++ {
		assert.Equal(t, expected, config.CitiesForRotation(day), "day %d", day)
	}
}

func TestCitiesForRotation_DisabledAlwaysReturnsFirstFiveMajor(t *testing.T) {
	config := DefaultConfig()
	config.CityRotation.Enabled = false

	for day := 0; day <= 6; day++ {
		assert.Equal(t, config.CityRotation.MajorCities[:5], config.CitiesForRotation(day))
	}
}

func TestCitiesForRotation_ShortCityLists(t *testing.T) {
	config := Config{
		CityRotation: CityRotationConfig{
			Enabled:      true,
			MajorCities:  []string{"Madrid", "Barcelona"},
			MinorCities:  []string{"Teruel"},
			RotationDays: 7,
		},
	}

	assert.Equal(t, []string{"Madrid", "Barcelona"}, config.CitiesForRotation(0))
	assert.Equal(t, []string{"Madrid", "Barcelona", "Teruel"}, config.CitiesForRotation(6))
}

func TestDefaultConfig_MatchesShippedSchedule(t *testing.T) {
	config := DefaultConfig()

	assert.True(t, config.CityRotation.Enabled)
	assert.Equal(t, 7, config.CityRotation.RotationDays)
	assert.Len(t, config.MarketSchedules, 9)
	assert.Equal(t, "sunday", config.ComprehensiveRuns.Day)
	assert.Equal(t, 5, config.ComprehensiveRuns.MaxCities)
}
