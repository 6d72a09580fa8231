package chat

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type mongoMessage struct {
	ID         string `bson:"_id"`
	Text       string `bson:"text"`
	Sender     string `bson:"sender"`
	Timestamp  int64  `bson:"timestamp"`
	Subject    string `bson:"subject"`
	SubjectKey string `bson:"subjectKey"`
	SenderID   string `bson:"senderId,omitempty"`
	SenderName string `bson:"senderName,omitempty"`
}

type mongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore keeps messages in the community_chats collection of db.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{collection: db.Collection(messagesCollection)}
}

func (s *mongoStore) Append(ctx context.Context, m *Message) error {
	_, err := s.collection.InsertOne(ctx, mongoMessage(*m))
	if err != nil {
		return fmt.Errorf("insert message %s: %w", m.ID, err)
	}
	return nil
}

// List returns documents in natural order.
func (s *mongoStore) List(ctx context.Context) ([]Message, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoMessage
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, Message(d))
	}
	return out, nil
}
