// File: internal/appointment/service.go
package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/platform/messaging"

	"go.uber.org/zap"
)

// Event types published for appointment changes.
const (
	EventCreated       = "appointment.created"
	EventStatusChanged = "appointment.status_changed"
)

// StatusChange is the payload of EventStatusChanged.
type StatusChange struct {
	AppointmentID string `json:"appointmentId"`
	TherapistID   string `json:"therapistId"`
	PatientID     string `json:"patientId"`
	From          Status `json:"from"`
	To            Status `json:"to"`
}

// Service defines the appointment operations.
type Service interface {
	Create(ctx context.Context, in NewAppointment) (*Appointment, error)
	ListFor(ctx context.Context, participantID, role string) ([]Appointment, error)
	UpdateStatus(ctx context.Context, therapistID, id string, to Status) (*Appointment, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	repo      Repository
	publisher messaging.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new appointment service.
func NewService(repo Repository, publisher messaging.Publisher, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:      repo,
		publisher: publisher,
		logger:    logger.Named("AppointmentService"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a pending appointment. It issues exactly one store write.
func (s *ServiceImplementation) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	fieldErrs := map[string]string{}
	if strings.TrimSpace(in.Date) == "" {
		fieldErrs["Date"] = "The date field is required."
	}
	if strings.TrimSpace(in.Time) == "" {
		fieldErrs["Time"] = "The time field is required."
	}
	if in.Therapist.ID == "" {
		fieldErrs["TherapistID"] = "The therapistid field is required."
	}
	if in.PatientID == "" {
		fieldErrs["PatientID"] = "The patientid field is required."
	}
	if len(fieldErrs) > 0 {
		return nil, common.NewValidationAPIError(fieldErrs)
	}

	a := &Appointment{
		Date:         strings.TrimSpace(in.Date),
		Time:         strings.TrimSpace(in.Time),
		TherapistRef: in.Therapist,
		PatientID:    in.PatientID,
		PatientName:  in.PatientName,
		Status:       StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Error("Failed to create appointment",
			zap.String("patientID", in.PatientID),
			zap.String("therapistID", in.Therapist.ID),
			zap.Error(err))
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}

	s.logger.Info("Appointment created",
		zap.String("appointmentID", a.ID),
		zap.String("therapistID", a.TherapistRef.ID),
		zap.String("date", a.Date),
		zap.String("time", a.Time))
	s.publish(ctx, EventCreated, a)
	return a, nil
}

// ListFor returns the appointments a participant takes part in. An empty id or an
// unknown role yields an empty list without a store call.
func (s *ServiceImplementation) ListFor(ctx context.Context, participantID, role string) ([]Appointment, error) {
	if participantID == "" {
		return []Appointment{}, nil
	}
	var (
		list []Appointment
		err  error
	)
	switch role {
	case common.RolePatient:
		list, err = s.repo.FindByPatient(ctx, participantID)
	case common.RoleTherapist:
		list, err = s.repo.FindByTherapist(ctx, participantID)
	default:
		return []Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments for %s %s: %w", role, participantID, err)
	}
	if list == nil {
		list = []Appointment{}
	}
	return list, nil
}

// UpdateStatus advances an appointment owned by therapistID.
func (s *ServiceImplementation) UpdateStatus(ctx context.Context, therapistID, id string, to Status) (*Appointment, error) {
	if !to.IsValid() {
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Unknown status %q.", to))
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.TherapistRef.ID != therapistID {
		return nil, common.ErrForbidden.WithDetails("Only the assigned therapist can change this appointment.")
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, common.ErrInvalidTransition.WithDetails(fmt.Sprintf("Cannot move an appointment from %s to %s.", current.Status, to))
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		s.logger.Error("Failed to update appointment status", zap.String("appointmentID", id), zap.Error(err))
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}

	s.publish(ctx, EventStatusChanged, StatusChange{
		AppointmentID: id,
		TherapistID:   therapistID,
		PatientID:     updated.PatientID,
		From:          current.Status,
		To:            to,
	})
	return updated, nil
}

func (s *ServiceImplementation) publish(ctx context.Context, eventType string, payload interface{}) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logger.Warn("Appointment event not published", zap.String("eventType", eventType), zap.Error(err))
	}
}
