package database

import (
	"context"
	"fmt"
	"time"

	"creative_cure_backend/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// NewMongoDatabase connects to MongoDB when CHAT_STORE=mongo and returns the
// configured database. It returns nil for every other chat store.
func NewMongoDatabase(cfg *config.Config, logger *zap.Logger) (*mongo.Database, func(), error) {
	if cfg.ChatStore != config.DriverMongo {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo database: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo database: %w", err)
	}
	logger.Info("Successfully connected to mongo database", zap.String("database", cfg.MongoDatabase))

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("Failed to disconnect mongo client", zap.Error(err))
		}
	}
	return client.Database(cfg.MongoDatabase), cleanup, nil
}
