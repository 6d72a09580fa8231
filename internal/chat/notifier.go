package chat

import (
	"context"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const changesChannel = "community:changes"

// Notifier signals that the message collection changed. Signals carry no payload;
// listeners re-read the store.
type Notifier interface {
	Notify(ctx context.Context) error
	Listen(ctx context.Context) (<-chan struct{}, func())
}

// NewNotifier fans changes out through Redis when rdb is set, so every instance
// sees writes made by the others, and in process otherwise.
func NewNotifier(rdb *goredis.Client, logger *zap.Logger) Notifier {
	if rdb == nil {
		return NewMemoryNotifier()
	}
	return &redisNotifier{rdb: rdb, logger: logger.Named("ChatNotifier")}
}

// MemoryNotifier is a process-local Notifier.
type MemoryNotifier struct {
	mu        sync.Mutex
	next      int
	listeners map[int]chan struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{listeners: make(map[int]chan struct{})}
}

func (n *MemoryNotifier) Notify(context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.listeners {
		signal(ch)
	}
	return nil
}

func (n *MemoryNotifier) Listen(ctx context.Context) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	id := n.next
	n.next++
	n.listeners[id] = ch
	n.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
	return ch, stop
}

type redisNotifier struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

func (n *redisNotifier) Notify(ctx context.Context) error {
	return n.rdb.Publish(ctx, changesChannel, "changed").Err()
}

func (n *redisNotifier) Listen(ctx context.Context) (<-chan struct{}, func()) {
	ps := n.rdb.Subscribe(ctx, changesChannel)
	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				signal(out)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			if err := ps.Close(); err != nil {
				n.logger.Warn("Failed to close chat subscription", zap.Error(err))
			}
		})
	}
	return out, stop
}

// signal coalesces pending notifications into one.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
