package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultWriteTimeout bounds a detached message write when none is configured.
const DefaultWriteTimeout = 10 * time.Second

// Feed is the community chat service.
type Feed struct {
	store        Store
	notifier     Notifier
	writeTimeout time.Duration
	logger       *zap.Logger
	now          func() time.Time

	clockMu   sync.Mutex
	lastStamp int64

	pending sync.WaitGroup
}

// NewFeed creates a feed over store. Changes are announced through notifier unless
// the store has its own live query.
func NewFeed(store Store, notifier Notifier, writeTimeout time.Duration, logger *zap.Logger) *Feed {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Feed{
		store:        store,
		notifier:     notifier,
		writeTimeout: writeTimeout,
		logger:       logger.Named("ChatFeed"),
		now:          time.Now,
	}
}

// Snapshot returns the whole collection in store order.
func (f *Feed) Snapshot(ctx context.Context) ([]Message, error) {
	msgs, err := f.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// Append stamps and sends a message without waiting for the write. The returned
// message is what will be stored; a write failure is only logged. The sender tag
// is the account role, so a user without a patient or therapist role cannot post.
func (f *Feed) Append(st session.State, text, subject string) (*Message, error) {
	if !st.SignedIn() {
		return nil, common.ErrUnauthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.NewValidationAPIError(map[string]string{"Text": "The text field must not be blank."})
	}

	if !common.IsKnownRole(st.User.Role) {
		return nil, common.ErrForbidden.WithDetails("Unable to determine your role. Please contact support.")
	}
	m := &Message{
		ID:         uuid.NewString(),
		Text:       text,
		Sender:     st.User.Role,
		Timestamp:  f.stamp(),
		SenderID:   st.User.ID,
		SenderName: st.User.Name,
	}
	m.Subject, m.SubjectKey = normalizeSubject(subject)

	stored := *m
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), f.writeTimeout)
		defer cancel()
		if err := f.store.Append(ctx, &stored); err != nil {
			f.logger.Error("Error sending message", zap.String("messageID", stored.ID), zap.String("senderID", stored.SenderID), zap.Error(err))
			return
		}
		if _, native := f.store.(Watcher); native {
			return
		}
		if err := f.notifier.Notify(ctx); err != nil {
			f.logger.Warn("Failed to announce chat change", zap.Error(err))
		}
	}()
	return m, nil
}

// stamp returns the current time in milliseconds, never earlier than the
// previous stamp even if the wall clock steps back.
func (f *Feed) stamp() int64 {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	ms := f.now().UnixMilli()
	if ms < f.lastStamp {
		ms = f.lastStamp
	}
	f.lastStamp = ms
	return ms
}

// Wait blocks until in-flight writes finish.
func (f *Feed) Wait() {
	f.pending.Wait()
}

// Subscribe delivers the full collection now and after every change until ctx
// ends. Slow readers only see the latest snapshot.
func (f *Feed) Subscribe(ctx context.Context) <-chan []Message {
	out := make(chan []Message, 1)
	go func() {
		defer close(out)
		if w, ok := f.store.(Watcher); ok {
			err := w.Watch(ctx, func(msgs []Message) { deliver(ctx, out, msgs) })
			if err != nil {
				f.logger.Error("Chat live query ended", zap.Error(err))
			}
			return
		}

		changes, stop := f.notifier.Listen(ctx)
		defer stop()
		f.push(ctx, out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-changes:
				f.push(ctx, out)
			}
		}
	}()
	return out
}

func (f *Feed) push(ctx context.Context, out chan []Message) {
	msgs, err := f.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			f.logger.Warn("Failed to read chat snapshot", zap.Error(err))
		}
		return
	}
	deliver(ctx, out, msgs)
}

// deliver replaces an unread snapshot with msgs.
func deliver(ctx context.Context, out chan []Message, msgs []Message) {
	select {
	case out <- msgs:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	select {
	case out <- msgs:
	case <-ctx.Done():
	}
}
