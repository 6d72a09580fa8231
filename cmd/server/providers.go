package main

import (
	"context"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/booking"
	"creative_cure_backend/internal/chat"
	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/filestorage"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/history"
	"creative_cure_backend/internal/middleware"
	"creative_cure_backend/internal/platform/database"
	esplatform "creative_cure_backend/internal/platform/elasticsearch"
	"creative_cure_backend/internal/therapist"
	"creative_cure_backend/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// provideDatabase opens the relational store and migrates every table the
// configured drivers write to. The returned DB is nil when DATA_STORE=firestore.
func provideDatabase(cfg *config.Config, logger *zap.Logger) (*gorm.DB, func(), error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, func() {}, nil
	}

	models := []interface{}{&user.User{}}
	models = append(models, appointment.Models()...)
	models = append(models, history.Models()...)
	if cfg.ChatStore == config.DriverSQL {
		models = append(models, chat.Models()...)
	}
	if err := database.Migrate(db, models...); err != nil {
		database.CloseGORMDB(db)
		return nil, nil, err
	}
	logger.Info("Relational schema migrated", zap.String("dataStore", cfg.DataStore), zap.Int("tables", len(models)))
	return db, func() { database.CloseGORMDB(db) }, nil
}

func provideUserRepository(clients *firebase.Clients, db *gorm.DB) user.Repository {
	if db != nil {
		return user.NewGORMRepository(db)
	}
	return user.NewFirestoreRepository(clients.Firestore)
}

func provideAppointmentRepository(clients *firebase.Clients, db *gorm.DB) appointment.Repository {
	if db != nil {
		return appointment.NewGORMRepository(db)
	}
	return appointment.NewFirestoreRepository(clients.Firestore)
}

func provideHistoryRepository(clients *firebase.Clients, db *gorm.DB) history.Repository {
	if db != nil {
		return history.NewGORMRepository(db)
	}
	return history.NewFirestoreRepository(clients.Firestore)
}

func provideAvatarStore(blobs filestorage.BlobStore) user.AvatarStore {
	return blobs
}

// provideTherapistIndex connects to Elasticsearch and makes sure the directory
// index exists. Search stays disabled when ELASTICSEARCH_URL is empty.
func provideTherapistIndex(cfg *config.Config, logger *zap.Logger) (therapist.Indexer, error) {
	client, err := esplatform.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	if client == nil {
		logger.Info("Elasticsearch not configured, therapist search disabled")
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := esplatform.CreateTherapistsIndexIfNotExists(ctx, client, logger); err != nil {
		logger.Error("Failed to create Elasticsearch therapists index", zap.Error(err))
	}
	return therapist.NewESIndex(client, logger), nil
}

func provideDraftStore(cfg *config.Config, rdb *goredis.Client, logger *zap.Logger) booking.DraftStore {
	return booking.NewDraftStore(rdb, cfg.BookingDraftTTL, logger)
}

func provideBookingService(
	cfg *config.Config,
	directory booking.Directory,
	appointments booking.Appointments,
	drafts booking.DraftStore,
	logger *zap.Logger,
) *booking.ServiceImplementation {
	return booking.NewService(directory, appointments, drafts, cfg.BookingSubmitTimeout, logger)
}

func provideChatStore(cfg *config.Config, clients *firebase.Clients, mdb *mongo.Database, db *gorm.DB) (chat.Store, error) {
	return chat.NewStore(cfg, clients.Firestore, mdb, db)
}

func provideFeed(cfg *config.Config, store chat.Store, notifier chat.Notifier, logger *zap.Logger) *chat.Feed {
	return chat.NewFeed(store, notifier, cfg.ChatWriteTimeout, logger)
}

func provideMetrics() *middleware.Metrics {
	return middleware.NewMetrics(prometheus.DefaultRegisterer)
}
