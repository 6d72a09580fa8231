// Package chat is the community message feed shared by all signed-in users.
package chat

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
)

// DefaultSubject tags messages sent without a subject.
const DefaultSubject = "General"

const messagesCollection = "community_chats"

// Message is one community chat entry. Timestamp is epoch milliseconds stamped by
// the server; messages are never edited.
type Message struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Sender     string `json:"sender"`
	Timestamp  int64  `json:"timestamp"`
	Subject    string `json:"subject"`
	SubjectKey string `json:"subjectKey"`
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

// AppendRequest is the body of POST /community/messages.
type AppendRequest struct {
	Text    string `json:"text" binding:"required,notblank,max=2000"`
	Subject string `json:"subject" binding:"omitempty,max=80"`
}

// Store persists messages. List returns them in the order the store yields,
// without sorting.
type Store interface {
	Append(ctx context.Context, m *Message) error
	List(ctx context.Context) ([]Message, error)
}

// Watcher is implemented by stores with a native live query. Watch blocks and
// calls fn with the full collection on every change until ctx ends.
type Watcher interface {
	Watch(ctx context.Context, fn func([]Message)) error
}

func normalizeSubject(subject string) (string, string) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	key := slug.Make(subject)
	if key == "" {
		key = slug.Make(DefaultSubject)
	}
	return subject, key
}
