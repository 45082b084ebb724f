package main

import (
	"context"
	"os"

	"github.com/Dhoini/storefront-billing/internal/app"
	"github.com/Dhoini/storefront-billing/internal/config"
	"github.com/Dhoini/storefront-billing/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatal("Application terminated with error: %v", err)
	}
}
