package chat

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore keeps messages in the community_chats collection.
func NewFirestoreStore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Append(ctx context.Context, m *Message) error {
	_, err := s.client.Collection(messagesCollection).Doc(m.ID).Set(ctx, map[string]interface{}{
		"text":       m.Text,
		"sender":     m.Sender,
		"timestamp":  m.Timestamp,
		"subject":    m.Subject,
		"subjectKey": m.SubjectKey,
		"senderId":   m.SenderID,
		"senderName": m.SenderName,
	})
	return err
}

func (s *firestoreStore) List(ctx context.Context) ([]Message, error) {
	snaps, err := s.client.Collection(messagesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeSnapshots(snaps), nil
}

// Watch follows the collection with a snapshot listener.
func (s *firestoreStore) Watch(ctx context.Context, fn func([]Message)) error {
	it := s.client.Collection(messagesCollection).Snapshots(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("watch %s: %w", messagesCollection, err)
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("read %s snapshot: %w", messagesCollection, err)
		}
		fn(decodeSnapshots(docs))
	}
}

func decodeSnapshots(snaps []*firestore.DocumentSnapshot) []Message {
	out := make([]Message, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, decodeDocument(snap.Ref.ID, snap.Data()))
	}
	return out
}

// decodeDocument accepts documents written by older clients, whose timestamp may
// be a Firestore timestamp and whose subject may be missing.
func decodeDocument(id string, data map[string]interface{}) Message {
	m := Message{ID: id}
	m.Text, _ = data["text"].(string)
	m.Sender, _ = data["sender"].(string)
	m.SenderID, _ = data["senderId"].(string)
	m.SenderName, _ = data["senderName"].(string)
	subject, _ := data["subject"].(string)
	m.Subject, m.SubjectKey = normalizeSubject(subject)
	switch ts := data["timestamp"].(type) {
	case int64:
		m.Timestamp = ts
	case float64:
		m.Timestamp = int64(ts)
	case time.Time:
		m.Timestamp = ts.UnixMilli()
	}
	return m
}
