package main

import (
	"context"
	"flag"
	"log" // Standard log for messages before and after zap is active
	"os"
	"os/signal"
	"syscall"

	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/platform/logger"
	"creative_cure_backend/internal/therapist"
	"creative_cure_backend/internal/user"

	"go.uber.org/zap"
)

func main() {
	syncCmd := flag.NewFlagSet("sync-therapists", flag.ExitOnError)
	batchSize := syncCmd.Int("batch-size", 100, "Batch size for syncing therapists")
	esRefresh := syncCmd.String("es-refresh", "false", "Elasticsearch refresh policy (true, false, wait_for)")

	if len(os.Args) > 1 && os.Args[1] == "sync-therapists" {
		if err := syncCmd.Parse(os.Args[2:]); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		runTherapistSync(*batchSize, *esRefresh)
		return
	}

	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
}

// runTherapistSync rebuilds the search index from the therapist directory
// without starting the HTTP server.
func runTherapistSync(batchSize int, esRefresh string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration for sync: %v", err)
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger for sync: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	if cfg.ElasticsearchURL == "" {
		appLogger.Fatal("ELASTICSEARCH_URL must be set to sync therapists")
	}

	clients, closeClients, err := firebase.NewClients(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Firebase for sync", zap.Error(err))
	}
	defer closeClients()

	db, closeDB, err := provideDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize database for sync", zap.Error(err))
	}
	defer closeDB()

	index, err := provideTherapistIndex(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Elasticsearch client for sync", zap.Error(err))
	}

	accounts := user.NewService(provideUserRepository(clients, db), nil, nil, appLogger)
	directory := therapist.NewService(accounts, nil, index, appLogger)

	appLogger.Info("Starting therapist synchronization to Elasticsearch...",
		zap.Int("batchSize", batchSize),
		zap.String("esRefreshPolicy", esRefresh),
	)
	stats, err := directory.SyncIndex(context.Background(), batchSize, esRefresh)
	if err != nil {
		appLogger.Error("Therapist synchronization failed", zap.Int("indexed", stats.Indexed), zap.Int("failed", stats.Failed), zap.Error(err))
		os.Exit(1)
	}
	appLogger.Info("Therapist synchronization completed successfully.", zap.Int("indexed", stats.Indexed))
}
