package main

import (
	"log"
	"os"

	"github.com/nhuertas/supermercat/api"
	"github.com/nhuertas/supermercat/config"
	"github.com/nhuertas/supermercat/markets"
	"github.com/nhuertas/supermercat/scraper"
	"github.com/nhuertas/supermercat/storage"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := config.Load(getEnv("SUPERMERCAT_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open product store: %v", err)
	}
	defer store.Close()

	registry := markets.NewRegistry()
	if err := scraper.RegisterDefaults(registry, store); err != nil {
		log.Fatalf("Failed to register markets: %v", err)
	}

	server := api.NewServer(store, registry)
	router := server.SetupRouter()

	log.Printf("INFO: Starting product API server on %s", cfg.API.Addr)
	if err := router.Run(cfg.API.Addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
