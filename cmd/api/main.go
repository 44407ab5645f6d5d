package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/app"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/reporting"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := reporting.Init(cfg.Sentry.DSN, cfg.App.Env, cfg.App.Name); err != nil {
		log.Printf("sentry disabled: %v", err)
	}
	defer reporting.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Printf("application stopped: %v", err)
		reporting.Flush()
		os.Exit(1)
	}
}
