package main

import (
	"fmt"
	"strings"

	"github.com/nhuertas/supermercat/config"
)

func handleMarkets(cfg config.AppConfig) {
	sys := mustOpenSystem(cfg)
	defer sys.Close()

	fmt.Printf("%-12s %-16s %-10s %s\n", "MARKET", "KIND", "CAP", "CATEGORIES")
	for _, name := range sys.registry.Names() {
		descriptor, ok := sys.registry.Get(name)
		if !ok {
			continue
		}

		kind := "single-location"
		cap := descriptor.MaxProducts
		if descriptor.CitySupport {
			kind = "city-supporting"
			cap = descriptor.MaxProductsPerCity
		}
		fmt.Printf("%-12s %-16s %-10d %s\n", name, kind, cap, strings.Join(descriptor.Categories, ","))
	}
}
