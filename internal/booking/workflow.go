// Package booking drives a patient through selecting a therapist, filling a date
// and time, and submitting a pending appointment.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/therapist"
)

// State of a booking workflow.
type State string

const (
	StateIdle              State = "idle"
	StateTherapistSelected State = "therapist_selected"
	StateFormOpen          State = "form_open"
	StateSubmitting        State = "submitting"
	StateSuccess           State = "success"
	StateFailed            State = "failed"
)

var (
	ErrDirectoryNotReady = errors.New("therapist directory is not ready")
	ErrTherapistNotFound = errors.New("therapist not found in directory")
	ErrOutOfOrder        = errors.New("booking step not allowed in current state")
	ErrSubmitInProgress  = errors.New("booking is being submitted")
)

// Creator issues the appointment write.
type Creator interface {
	Create(ctx context.Context, in appointment.NewAppointment) (*appointment.Appointment, error)
}

// Patient is the booking party, always taken from the session.
type Patient struct {
	ID   string
	Name string
}

// Snapshot is the serialisable state of a workflow.
type Snapshot struct {
	ID          string                    `json:"id"`
	PatientID   string                    `json:"patientId"`
	State       State                     `json:"state"`
	Therapist   *appointment.TherapistRef `json:"therapist,omitempty"`
	Date        string                    `json:"date,omitempty"`
	Time        string                    `json:"time,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Appointment *appointment.Appointment  `json:"appointment,omitempty"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
}

// Workflow is one booking state machine. Operations are serialised; the store
// write in Submit runs outside the lock so that concurrent calls observe the
// submitting state and are rejected.
type Workflow struct {
	mu sync.Mutex

	creator Creator
	patient Patient
	timeout time.Duration

	id           string
	state        State
	therapist    *appointment.TherapistRef
	date, time   string
	err          error
	last         *appointment.Appointment
	appointments []appointment.Appointment

	onSubmitting func(Snapshot)
}

// NewWorkflow returns an idle workflow. A non-positive timeout leaves the write
// bounded only by ctx.
func NewWorkflow(creator Creator, patient Patient, timeout time.Duration) *Workflow {
	return &Workflow{creator: creator, patient: patient, timeout: timeout, state: StateIdle}
}

// RestoreWorkflow rebuilds a workflow from a stored snapshot. A submitting snapshot
// younger than timeout stays submitting, so a second submit is rejected while the
// first write may still land. An older one is restored as failed. A snapshot that
// needs a therapist but carries none is restored as idle.
func RestoreWorkflow(creator Creator, patient Patient, timeout time.Duration, snap Snapshot) *Workflow {
	w := NewWorkflow(creator, patient, timeout)
	w.id = snap.ID
	w.state = snap.State
	if w.state == "" {
		w.state = StateIdle
	}
	if snap.Therapist != nil {
		ref := *snap.Therapist
		w.therapist = &ref
	}
	w.date, w.time = snap.Date, snap.Time
	if snap.Error != "" {
		w.err = errors.New(snap.Error)
	}
	w.last = snap.Appointment
	if w.therapist == nil && w.state != StateIdle && w.state != StateSuccess {
		w.state = StateIdle
		w.date, w.time, w.err = "", "", nil
	}
	if w.state == StateSubmitting && submitLapsed(snap.UpdatedAt, timeout, time.Now()) {
		w.state = StateFailed
		w.err = errors.New("submission outcome unknown")
	}
	return w
}

// submitLapsed reports whether a submission stamped at started can no longer be
// in flight.
func submitLapsed(started time.Time, timeout time.Duration, now time.Time) bool {
	if started.IsZero() {
		return true
	}
	return timeout > 0 && now.Sub(started) > timeout
}

// SetID tags the workflow with its draft id.
func (w *Workflow) SetID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.id = id
}

// OnSubmitting registers fn to run with the submitting snapshot before the write.
func (w *Workflow) OnSubmitting(fn func(Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onSubmitting = fn
}

// SetAppointments seeds the local appointment list that successful submissions
// are merged into.
func (w *Workflow) SetAppointments(list []appointment.Appointment) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.appointments = appointment.MergeByID(nil, list...)
}

// Appointments returns a copy of the local list.
func (w *Workflow) Appointments() []appointment.Appointment {
	w.mu.Lock()
	defer w.mu.Unlock()
	return appointment.MergeByID(nil, w.appointments...)
}

// State returns the current state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Err returns the error captured by the last failed step.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Snapshot captures the workflow state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:          w.id,
		PatientID:   w.patient.ID,
		State:       w.state,
		Date:        w.date,
		Time:        w.time,
		Appointment: w.last,
		UpdatedAt:   time.Now().UTC(),
	}
	if w.therapist != nil {
		ref := *w.therapist
		snap.Therapist = &ref
	}
	if w.err != nil {
		snap.Error = w.err.Error()
	}
	return snap
}

// Select picks a therapist from a ready directory.
func (w *Workflow) Select(dir therapist.Directory, therapistID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle && w.state != StateTherapistSelected {
		return w.rejectLocked()
	}
	if !dir.Ready() {
		return ErrDirectoryNotReady
	}
	p, ok := dir.Find(therapistID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTherapistNotFound, therapistID)
	}
	ref := p.Ref()
	w.therapist = &ref
	w.last = nil
	w.err = nil
	w.state = StateTherapistSelected
	return nil
}

// OpenForm shows the date and time form for the selected therapist.
func (w *Workflow) OpenForm() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateTherapistSelected {
		return w.rejectLocked()
	}
	w.state = StateFormOpen
	return nil
}

// Fill stores the form input. A failed submission keeps the form open, so Fill is
// allowed there too.
func (w *Workflow) Fill(date, slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateFormOpen && w.state != StateFailed {
		return w.rejectLocked()
	}
	w.date, w.time = date, slot
	return nil
}

// Submit issues exactly one create for the filled form. Blank input returns the
// workflow to form_open without a write. A store error or timeout moves it to
// failed with the input kept; success merges the appointment into the local list
// and returns the workflow to idle.
func (w *Workflow) Submit(ctx context.Context) (*appointment.Appointment, error) {
	w.mu.Lock()
	if w.state != StateFormOpen && w.state != StateFailed {
		err := w.rejectLocked()
		w.mu.Unlock()
		return nil, err
	}

	date, slot := strings.TrimSpace(w.date), strings.TrimSpace(w.time)
	if date == "" || slot == "" {
		fieldErrs := map[string]string{}
		if date == "" {
			fieldErrs["Date"] = "The date field is required."
		}
		if slot == "" {
			fieldErrs["Time"] = "The time field is required."
		}
		verr := common.NewValidationAPIError(fieldErrs)
		w.state = StateFormOpen
		w.err = verr
		w.mu.Unlock()
		return nil, verr
	}

	in := appointment.NewAppointment{
		Date:        date,
		Time:        slot,
		Therapist:   *w.therapist,
		PatientID:   w.patient.ID,
		PatientName: w.patient.Name,
	}
	w.state = StateSubmitting
	w.err = nil
	hook := w.onSubmitting
	snap := w.snapshotLocked()
	w.mu.Unlock()

	if hook != nil {
		hook(snap)
	}
	created, err := w.create(ctx, in)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state = StateFailed
		w.err = err
		return nil, err
	}
	w.last = created
	w.appointments = appointment.MergeByID(w.appointments, *created)
	w.state = StateSuccess
	w.closeFormLocked()
	return created, nil
}

// Cancel discards the input and returns to idle. It is refused while a
// submission is in flight.
func (w *Workflow) Cancel() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	w.closeFormLocked()
	w.last = nil
	return nil
}

func (w *Workflow) closeFormLocked() {
	w.therapist = nil
	w.date, w.time = "", ""
	w.err = nil
	w.state = StateIdle
}

func (w *Workflow) rejectLocked() error {
	if w.state == StateSubmitting {
		return ErrSubmitInProgress
	}
	return fmt.Errorf("%w: %s", ErrOutOfOrder, w.state)
}

type createResult struct {
	appointment *appointment.Appointment
	err         error
}

// create bounds the store write by the workflow timeout even if the store does
// not honour ctx.
func (w *Workflow) create(ctx context.Context, in appointment.NewAppointment) (*appointment.Appointment, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	done := make(chan createResult, 1)
	go func() {
		a, err := w.creator.Create(ctx, in)
		done <- createResult{appointment: a, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, common.ErrBookingTimeout.WithDetails(res.err.Error())
		}
		return res.appointment, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, common.ErrBookingTimeout
		}
		return nil, ctx.Err()
	}
}
