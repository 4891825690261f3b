package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/jmcarrillo/clinica-api/internal/config"
	"github.com/jmcarrillo/clinica-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("configuration error: %v", err)
		os.Exit(1)
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("server setup failed", zap.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
