package chat

import (
	"fmt"

	"creative_cure_backend/internal/config"

	"cloud.google.com/go/firestore"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// NewStore selects the message store named by CHAT_STORE.
func NewStore(cfg *config.Config, fs *firestore.Client, mdb *mongo.Database, db *gorm.DB) (Store, error) {
	switch cfg.ChatStore {
	case config.DriverFirestore:
		if fs == nil {
			return nil, fmt.Errorf("CHAT_STORE=firestore requires a firestore client")
		}
		return NewFirestoreStore(fs), nil
	case config.DriverMongo:
		if mdb == nil {
			return nil, fmt.Errorf("CHAT_STORE=mongo requires a mongo database")
		}
		return NewMongoStore(mdb), nil
	case config.DriverSQL:
		if db == nil {
			return nil, fmt.Errorf("CHAT_STORE=sql requires a relational database")
		}
		return NewGORMStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported CHAT_STORE %q", cfg.ChatStore)
	}
}
