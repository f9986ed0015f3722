package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/curiofm/curio-backend/internal/app"
	"github.com/curiofm/curio-backend/internal/platform/envutil"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

func main() {
	if err := app.LoadDotEnv(); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := app.LoadConfig(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, log, cfg, true)
	if err != nil {
		log.Error("init app failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Start(ctx); err != nil {
		log.Error("start background workers failed", "error", err)
		os.Exit(1)
	}
	if err := application.Run(ctx); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
