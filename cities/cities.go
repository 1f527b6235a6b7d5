// Package cities provides the static reference list of Spanish cities used
// to scope city-aware scrapers.
package cities

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// City is a read-only reference record.
type City struct {
	Name       string `json:"name"`
	Population int    `json:"population"`
}

// List is an ordered collection of cities. Order follows the source file
// and is significant: callers truncate to "the first N" cities.
type List struct {
	cities []City
}

// Load reads a city list from a JSON file.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read city list: %w", err)
	}

	var cities []City
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("failed to parse city list: %w", err)
	}

	return &List{cities: cities}, nil
}

// LoadOrDefault reads a city list from a JSON file, falling back to the
// built-in list when the file does not exist.
func LoadOrDefault(path string) (*List, error) {
	list, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Default returns the built-in city list, ordered by population.
func Default() *List {
	return &List{cities: defaultCities()}
}

// All returns every city in source order.
func (l *List) All() []City {
	out := make([]City, len(l.cities))
	copy(out, l.cities)
	return out
}

// MajorCities returns the names of cities with population strictly above
// minPopulation, in source order.
func (l *List) MajorCities(minPopulation int) []string {
	var names []string
	for _, c := range l.cities {
		if c.Population > minPopulation {
			names = append(names, c.Name)
		}
	}
	return names
}

func defaultCities() []City {
	return []City{
		{Name: "Madrid", Population: 3280782},
		{Name: "Barcelona", Population: 1636762},
		{Name: "Valencia", Population: 792492},
		{Name: "Sevilla", Population: 684234},
		{Name: "Zaragoza", Population: 675301},
		{Name: "Málaga", Population: 578460},
		{Name: "Murcia", Population: 460349},
		{Name: "Palma", Population: 419366},
		{Name: "Las Palmas", Population: 378675},
		{Name: "Bilbao", Population: 346843},
		{Name: "Alicante", Population: 337482},
		{Name: "Córdoba", Population: 322071},
		{Name: "Valladolid", Population: 297775},
		{Name: "Vigo", Population: 293642},
		{Name: "Gijón", Population: 268896},
		{Name: "Granada", Population: 231775},
		{Name: "Vitoria", Population: 253672},
		{Name: "A Coruña", Population: 244700},
		{Name: "Elche", Population: 234765},
		{Name: "Oviedo", Population: 219686},
		{Name: "Badalona", Population: 223506},
		{Name: "Cartagena", Population: 216108},
		{Name: "Terrassa", Population: 224111},
		{Name: "Jerez", Population: 212749},
		{Name: "Sabadell", Population: 215760},
		{Name: "Santa Cruz de Tenerife", Population: 208688},
		{Name: "Pamplona", Population: 203418},
		{Name: "Almería", Population: 201322},
		{Name: "Alcalá de Henares", Population: 196888},
		{Name: "Fuenlabrada", Population: 192233},
		{Name: "Leganés", Population: 189861},
		{Name: "Donostia", Population: 188743},
		{Name: "Getafe", Population: 185180},
		{Name: "Burgos", Population: 174051},
		{Name: "Albacete", Population: 173329},
		{Name: "Santander", Population: 172221},
		{Name: "Castellón", Population: 171728},
		{Name: "Logroño", Population: 150808},
		{Name: "Badajoz", Population: 150610},
		{Name: "Salamanca", Population: 143269},
	}
}
