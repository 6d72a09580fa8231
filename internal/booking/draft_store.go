package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultDraftTTL applies when BOOKING_DRAFT_TTL_MINUTES is unset.
const DefaultDraftTTL = 30 * time.Minute

const draftKeyPrefix = "booking:draft:"

// ErrDraftNotFound is returned for unknown or expired drafts.
var ErrDraftNotFound = errors.New("booking draft not found")

// DraftStore keeps workflow snapshots between requests.
type DraftStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
}

// NewDraftStore returns a Redis store when rdb is set and an in-process one
// otherwise.
func NewDraftStore(rdb *goredis.Client, ttl time.Duration, logger *zap.Logger) DraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	if rdb == nil {
		logger.Info("Booking drafts kept in memory")
		return NewMemoryDraftStore(ttl)
	}
	return NewRedisDraftStore(rdb, ttl, logger)
}

// NewDraftID returns a random (version 4) draft id.
func NewDraftID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate draft id: %w", err)
	}
	return id.String(), nil
}

type memoryEntry struct {
	snap      Snapshot
	expiresAt time.Time
}

// MemoryDraftStore is a process-local DraftStore with lazy expiry.
type MemoryDraftStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryDraftStore creates an empty in-memory store.
func NewMemoryDraftStore(ttl time.Duration) *MemoryDraftStore {
	return &MemoryDraftStore{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryDraftStore) Save(_ context.Context, snap Snapshot) error {
	if snap.ID == "" {
		return errors.New("draft id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[snap.ID] = memoryEntry{snap: snap, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryDraftStore) Load(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, id)
		return nil, ErrDraftNotFound
	}
	snap := e.snap
	return &snap, nil
}

func (m *MemoryDraftStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// RedisDraftStore keeps drafts as JSON values with a TTL.
type RedisDraftStore struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDraftStore creates a Redis-backed store.
func NewRedisDraftStore(rdb *goredis.Client, ttl time.Duration, logger *zap.Logger) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl, logger: logger.Named("RedisDraftStore")}
}

func (r *RedisDraftStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.ID == "" {
		return errors.New("draft id is required")
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", snap.ID, err)
	}
	if err := r.rdb.Set(ctx, draftKeyPrefix+snap.ID, b, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft %s: %w", snap.ID, err)
	}
	return nil
}

func (r *RedisDraftStore) Load(ctx context.Context, id string) (*Snapshot, error) {
	b, err := r.rdb.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		r.logger.Warn("Discarding unreadable booking draft", zap.String("draftID", id), zap.Error(err))
		return nil, ErrDraftNotFound
	}
	return &snap, nil
}

func (r *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := r.rdb.Del(ctx, draftKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}
