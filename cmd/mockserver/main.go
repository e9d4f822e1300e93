package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-ragchat-client/internal/config"
	"ai-ragchat-client/internal/mockserver"
	"ai-ragchat-client/internal/pkg/logger"
	"ai-ragchat-client/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Logger and Tracer
	appLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer appLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracer, "ai-ragchat-mockserver", appLogger)
	defer shutdownTracer(context.Background())

	// 3. Backend
	srv := mockserver.New(mockserver.Config{
		JWTSecret:  cfg.Mock.JWTSecret,
		TokenTTL:   cfg.Mock.TokenTTL,
		LogoutPath: cfg.HTTP.LogoutPath,
		Logger:     appLogger,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		_ = srv.Shutdown()
	}()

	// 4. Run Server
	if err := srv.Listen(":" + cfg.Mock.Port); err != nil {
		log.Fatal(err)
	}
}
