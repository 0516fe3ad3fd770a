package main

import (
	"codejudge/configs"
	"codejudge/internal/logger"
	"codejudge/internal/server"
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	config := configs.LoadConfig()

	logger.InitLogger(config.AppEnv)
	defer logger.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, config); err != nil {
		logger.Log.Error("Server stopped with error", zap.Error(err))
		logger.SyncLogger()
		os.Exit(1)
	}

	logger.Log.Info("Server and workers stopped gracefully")
}
