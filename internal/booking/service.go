package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/therapist"

	"go.uber.org/zap"
)

// Directory provides the therapist snapshot a booking selects from.
type Directory interface {
	ListTherapists(ctx context.Context) therapist.Directory
}

// Appointments is the part of the appointment service bookings need.
type Appointments interface {
	Creator
	ListFor(ctx context.Context, participantID, role string) ([]appointment.Appointment, error)
}

// Result is the outcome of a successful submission.
type Result struct {
	Appointment  *appointment.Appointment  `json:"appointment"`
	Appointments []appointment.Appointment `json:"appointments"`
}

// Service runs booking workflows for signed-in patients.
type Service interface {
	Book(ctx context.Context, st session.State, req BookRequest) (*Result, error)
	StartDraft(ctx context.Context, st session.State, therapistID string) (*Snapshot, error)
	GetDraft(ctx context.Context, st session.State, id string) (*Snapshot, error)
	FillDraft(ctx context.Context, st session.State, id string, req FillRequest) (*Snapshot, error)
	SubmitDraft(ctx context.Context, st session.State, id string) (*Result, error)
	CancelDraft(ctx context.Context, st session.State, id string) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	directory    Directory
	appointments Appointments
	drafts       DraftStore
	timeout      time.Duration
	logger       *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates the booking service. timeout bounds each submission.
func NewService(directory Directory, appointments Appointments, drafts DraftStore, timeout time.Duration, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		directory:    directory,
		appointments: appointments,
		drafts:       drafts,
		timeout:      timeout,
		logger:       logger.Named("BookingService"),
		inflight:     make(map[string]struct{}),
	}
}

// Book runs select, open, fill and submit in one call.
func (s *ServiceImplementation) Book(ctx context.Context, st session.State, req BookRequest) (*Result, error) {
	patient, err := patientFrom(st)
	if err != nil {
		return nil, err
	}
	wf := NewWorkflow(s.appointments, patient, s.timeout)
	if err := wf.Select(s.directory.ListTherapists(ctx), req.TherapistID); err != nil {
		return nil, err
	}
	if err := wf.OpenForm(); err != nil {
		return nil, err
	}
	if err := wf.Fill(req.Date, req.Time); err != nil {
		return nil, err
	}
	s.seed(ctx, wf, patient)
	return s.submit(ctx, wf)
}

// StartDraft selects a therapist, opens the form and stores the draft.
func (s *ServiceImplementation) StartDraft(ctx context.Context, st session.State, therapistID string) (*Snapshot, error) {
	patient, err := patientFrom(st)
	if err != nil {
		return nil, err
	}
	id, err := NewDraftID()
	if err != nil {
		return nil, err
	}
	wf := NewWorkflow(s.appointments, patient, s.timeout)
	wf.SetID(id)
	if err := wf.Select(s.directory.ListTherapists(ctx), therapistID); err != nil {
		return nil, err
	}
	if err := wf.OpenForm(); err != nil {
		return nil, err
	}
	return s.save(ctx, wf)
}

func (s *ServiceImplementation) GetDraft(ctx context.Context, st session.State, id string) (*Snapshot, error) {
	_, snap, err := s.load(ctx, st, id)
	return snap, err
}

func (s *ServiceImplementation) FillDraft(ctx context.Context, st session.State, id string, req FillRequest) (*Snapshot, error) {
	wf, _, err := s.load(ctx, st, id)
	if err != nil {
		return nil, err
	}
	if err := wf.Fill(req.Date, req.Time); err != nil {
		return nil, err
	}
	return s.save(ctx, wf)
}

// SubmitDraft submits a stored draft. The draft is removed on success and kept,
// with its input, on failure.
func (s *ServiceImplementation) SubmitDraft(ctx context.Context, st session.State, id string) (*Result, error) {
	if !s.claim(id) {
		return nil, ErrSubmitInProgress
	}
	defer s.release(id)

	wf, _, err := s.load(ctx, st, id)
	if err != nil {
		return nil, err
	}
	wf.OnSubmitting(func(snap Snapshot) {
		if err := s.drafts.Save(ctx, snap); err != nil {
			s.logger.Warn("Failed to mark draft as submitting", zap.String("draftID", id), zap.Error(err))
		}
	})
	s.seed(ctx, wf, Patient{ID: st.User.ID})

	res, err := s.submit(ctx, wf)
	if err != nil {
		if IsWorkflowError(err) {
			return nil, err
		}
		if _, serr := s.save(ctx, wf); serr != nil {
			s.logger.Warn("Failed to persist booking draft", zap.String("draftID", id), zap.Error(serr))
		}
		return nil, err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to delete submitted draft", zap.String("draftID", id), zap.Error(err))
	}
	return res, nil
}

// claim marks a draft as being submitted by this instance. Other instances see
// the persisted submitting snapshot instead.
func (s *ServiceImplementation) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *ServiceImplementation) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func (s *ServiceImplementation) CancelDraft(ctx context.Context, st session.State, id string) error {
	wf, _, err := s.load(ctx, st, id)
	if err != nil {
		return err
	}
	if err := wf.Cancel(); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, id)
}

func (s *ServiceImplementation) submit(ctx context.Context, wf *Workflow) (*Result, error) {
	created, err := wf.Submit(ctx)
	if err != nil {
		s.logger.Warn("Booking submission failed",
			zap.String("state", string(wf.State())),
			zap.Error(err))
		return nil, err
	}
	return &Result{Appointment: created, Appointments: wf.Appointments()}, nil
}

// seed loads the patient's current appointments so the created one is merged
// into them. A read failure leaves the list empty.
func (s *ServiceImplementation) seed(ctx context.Context, wf *Workflow, patient Patient) {
	list, err := s.appointments.ListFor(ctx, patient.ID, common.RolePatient)
	if err != nil {
		s.logger.Warn("Could not load existing appointments", zap.String("patientID", patient.ID), zap.Error(err))
		return
	}
	wf.SetAppointments(list)
}

func (s *ServiceImplementation) load(ctx context.Context, st session.State, id string) (*Workflow, *Snapshot, error) {
	patient, err := patientFrom(st)
	if err != nil {
		return nil, nil, err
	}
	snap, err := s.drafts.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if snap.PatientID != patient.ID {
		return nil, nil, ErrDraftNotFound
	}
	return RestoreWorkflow(s.appointments, patient, s.timeout, *snap), snap, nil
}

func (s *ServiceImplementation) save(ctx context.Context, wf *Workflow) (*Snapshot, error) {
	snap := wf.Snapshot()
	if err := s.drafts.Save(ctx, snap); err != nil {
		s.logger.Error("Failed to save booking draft", zap.String("draftID", snap.ID), zap.Error(err))
		return nil, common.ErrWriteFailed.WithDetails(err.Error())
	}
	return &snap, nil
}

func patientFrom(st session.State) (Patient, error) {
	if !st.SignedIn() {
		return Patient{}, common.ErrUnauthorized
	}
	if st.User.Role != common.RolePatient {
		return Patient{}, common.ErrForbidden.WithDetails("Only patients can book appointments.")
	}
	return Patient{ID: st.User.ID, Name: st.User.Name}, nil
}

// IsWorkflowError reports whether err is a booking workflow rejection.
func IsWorkflowError(err error) bool {
	return errors.Is(err, ErrOutOfOrder) || errors.Is(err, ErrSubmitInProgress)
}
