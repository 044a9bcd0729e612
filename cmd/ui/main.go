package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-portfolio-sync/api"
	"github.com/thep200/github-portfolio-sync/internal/recovery"
	"github.com/thep200/github-portfolio-sync/internal/ui"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 0, "Port for the UI server to listen on (overrides config)")
	flag.Parse()

	// Setup dependencies
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolio := api.NewPortfolioAPI(nil)
	if err := portfolio.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize portfolio: %v", err)
	}
	defer portfolio.Close()

	config := portfolio.Config()
	logger := portfolio.Logger()
	if *port != 0 {
		config.Ui.Port = *port
	}

	controller := portfolio.Controller()
	controller.OnChange(func(s recovery.Status) {
		if s.State == recovery.RateLimited {
			logger.Debug(ctx, "Rate limited: %s", s.Countdown)
		}
	})
	go controller.Start(ctx)

	// Create and run the server
	server, err := ui.NewServer(logger, config, portfolio)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Error(ctx, "Server failed to start: %v", err)
			os.Exit(1)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for termination signal
	<-stop
	cancel()

	// Create a context with timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(config.Ui.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	// Gracefully shutdown the server
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error during server shutdown: %v", err)
	}

	logger.Info(shutdownCtx, "Server shut down gracefully")
}
