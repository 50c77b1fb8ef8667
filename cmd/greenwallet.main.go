package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"greenwallet-service/internal/config"
	"greenwallet-service/internal/server"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()

	srv, err := server.NewWalletServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to start wallet server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("wallet server exited", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("wallet server shut down gracefully")
}
