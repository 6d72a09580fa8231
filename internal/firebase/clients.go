package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	fbstorage "firebase.google.com/go/v4/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"creative_cure_backend/internal/config"
)

// Clients is the explicit backend context handed to every component at construction
// time. Firestore and Storage are nil when no configured driver uses them.
type Clients struct {
	App       *firebase.App
	Auth      *auth.Client
	Firestore *firestore.Client
	Storage   *fbstorage.Client
}

// NewClients initializes the Firebase Admin SDK once and opens the clients the
// configuration asks for.
func NewClients(cfg *config.Config, logger *zap.Logger) (*Clients, func(), error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Error("Firebase service account key path is not configured.")
		return nil, nil, fmt.Errorf("firebase service account key path is required")
	}
	ctx := context.Background()
	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	conf := &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.FirebaseStorageBucket,
	}
	app, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	clients := &Clients{App: app}
	clients.Auth, err = app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	if cfg.DataStore == config.DriverFirestore || cfg.ChatStore == config.DriverFirestore {
		clients.Firestore, err = app.Firestore(ctx)
		if err != nil {
			logger.Error("Failed to get Firestore client", zap.Error(err))
			return nil, nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
	}

	if cfg.BlobDriver == config.BlobDriverFirebase {
		clients.Storage, err = app.Storage(ctx)
		if err != nil {
			logger.Error("Failed to get Firebase Storage client", zap.Error(err))
			return nil, nil, fmt.Errorf("error getting Firebase Storage client: %w", err)
		}
	}

	logger.Info("Firebase Admin SDK initialized successfully.",
		zap.Bool("firestore", clients.Firestore != nil),
		zap.Bool("storage", clients.Storage != nil),
	)

	cleanup := func() {
		if clients.Firestore != nil {
			if err := clients.Firestore.Close(); err != nil {
				logger.Error("Failed to close Firestore client", zap.Error(err))
			}
		}
	}
	return clients, cleanup, nil
}
