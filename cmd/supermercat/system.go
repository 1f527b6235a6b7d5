package main

import (
	"fmt"
	"os"

	"github.com/nhuertas/supermercat/campaign"
	"github.com/nhuertas/supermercat/cities"
	"github.com/nhuertas/supermercat/config"
	"github.com/nhuertas/supermercat/dispatch"
	"github.com/nhuertas/supermercat/markets"
	"github.com/nhuertas/supermercat/scraper"
	"github.com/nhuertas/supermercat/storage"
)

// system is the wired application core shared by all subcommands: the
// store, the market registry with its scrapers bound, and the campaign
// orchestrator on top.
type system struct {
	store        *storage.Store
	registry     *markets.Registry
	dispatcher   *dispatch.Dispatcher
	cities       *cities.List
	orchestrator *campaign.Orchestrator
}

func openSystem(cfg config.AppConfig) (*system, error) {
	store, err := storage.NewStore(getEnv("SUPERMERCAT_DB", cfg.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open product store: %w", err)
	}

	registry := markets.NewRegistry()
	if err := scraper.RegisterDefaults(registry, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register markets: %w", err)
	}

	cityList, err := cities.LoadOrDefault(cfg.Cities.Path)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to load city list: %w", err)
	}

	dispatcher := dispatch.New(registry)

	return &system{
		store:        store,
		registry:     registry,
		dispatcher:   dispatcher,
		cities:       cityList,
		orchestrator: campaign.New(registry, dispatcher, cityList, nil),
	}, nil
}

func (s *system) Close() {
	s.store.Close()
}

// mustOpenSystem wires the application or exits.
func mustOpenSystem(cfg config.AppConfig) *system {
	sys, err := openSystem(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return sys
}
