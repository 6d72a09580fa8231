// File: internal/therapist/service.go
package therapist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/shared"

	"go.uber.org/zap"
)

// DefaultSearchLimit caps search results.
const DefaultSearchLimit = 50

// ErrSearchDisabled is returned when no search index is configured.
var ErrSearchDisabled = errors.New("therapist search is not configured")

// Service answers directory queries.
type Service interface {
	ListTherapists(ctx context.Context) Directory
	ListAppointmentsFor(ctx context.Context, participantID, role string) ([]appointment.Appointment, error)
	SearchTherapists(ctx context.Context, query string) ([]Profile, error)
	SyncIndex(ctx context.Context, batchSize int, refresh string) (IndexStats, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	accounts     shared.AccountService
	appointments appointment.Service
	index        Indexer
	logger       *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates the directory service. index may be nil.
func NewService(accounts shared.AccountService, appointments appointment.Service, index Indexer, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		accounts:     accounts,
		appointments: appointments,
		index:        index,
		logger:       logger.Named("DirectoryService"),
	}
}

// ListTherapists fetches the directory from the store on every call. A store
// failure produces a failed snapshot rather than an error.
func (s *ServiceImplementation) ListTherapists(ctx context.Context) Directory {
	dir := Directory{FetchedAt: time.Now().UTC()}
	accounts, err := s.accounts.ListAccountsByRole(ctx, common.RoleTherapist)
	if err != nil {
		s.logger.Error("Failed to load therapist directory", zap.Error(err))
		dir.Status = DirectoryFailed
		dir.Therapists = []Profile{}
		dir.Error = err.Error()
		return dir
	}

	dir.Status = DirectoryReady
	dir.Therapists = make([]Profile, 0, len(accounts))
	for _, a := range accounts {
		p, ok := ProfileFromAccount(a)
		if !ok {
			s.logger.Warn("Non-therapist account returned by role query", zap.String("userID", a.ID), zap.String("role", a.Role))
			continue
		}
		dir.Therapists = append(dir.Therapists, p)
	}
	dir.Empty = len(dir.Therapists) == 0
	return dir
}

// ListAppointmentsFor returns the appointments of a patient or therapist.
func (s *ServiceImplementation) ListAppointmentsFor(ctx context.Context, participantID, role string) ([]appointment.Appointment, error) {
	return s.appointments.ListFor(ctx, participantID, role)
}

// SearchTherapists queries the search index.
func (s *ServiceImplementation) SearchTherapists(ctx context.Context, query string) ([]Profile, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	return s.index.Search(ctx, query, DefaultSearchLimit)
}

// SyncIndex pushes the whole directory into the search index in batches.
func (s *ServiceImplementation) SyncIndex(ctx context.Context, batchSize int, refresh string) (IndexStats, error) {
	var total IndexStats
	if s.index == nil {
		return total, ErrSearchDisabled
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	dir := s.ListTherapists(ctx)
	if !dir.Ready() {
		return total, fmt.Errorf("load directory: %s", dir.Error)
	}

	s.logger.Info("Starting therapist index synchronization", zap.Int("therapists", len(dir.Therapists)), zap.Int("batchSize", batchSize))
	for start, batchNumber := 0, 1; start < len(dir.Therapists); start, batchNumber = start+batchSize, batchNumber+1 {
		end := start + batchSize
		if end > len(dir.Therapists) {
			end = len(dir.Therapists)
		}
		stats, err := s.index.Bulk(ctx, dir.Therapists[start:end], refresh)
		total.Indexed += stats.Indexed
		total.Failed += stats.Failed
		if err != nil {
			s.logger.Error("Bulk batch failed", zap.Int("batchNumber", batchNumber), zap.Error(err))
			continue
		}
		s.logger.Info("Batch processed.", zap.Int("batchNumber", batchNumber), zap.Int("syncedInBatch", stats.Indexed), zap.Int("failedInBatch", stats.Failed))
	}

	s.logger.Info("Therapist index synchronization finished", zap.Int("indexed", total.Indexed), zap.Int("failed", total.Failed))
	if total.Failed > 0 {
		return total, fmt.Errorf("%d therapists failed to sync", total.Failed)
	}
	return total, nil
}
