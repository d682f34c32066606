package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/maticastro/authgate/internal/config"
	"github.com/maticastro/authgate/internal/http/server"
	"github.com/maticastro/authgate/internal/observability/logger"

	// Store drivers register themselves.
	_ "github.com/maticastro/authgate/internal/store/memory"
	_ "github.com/maticastro/authgate/internal/store/pg"
)

var version = "dev"

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "authgate",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.L().Fatal("startup failed", logger.Err(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.L().Fatal("server exited", logger.Err(err))
	}
}
