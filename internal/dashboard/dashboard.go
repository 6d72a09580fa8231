// Package dashboard composes the signed-in user's landing view from their role.
package dashboard

import (
	"context"
	"sort"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/history"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"

	"go.uber.org/zap"
)

// Empty-state and role messages shown by the dashboard.
const (
	MsgNoAppointments   = "No appointments scheduled."
	MsgNoHistory        = "No therapy history found."
	MsgRoleUndetermined = "Unable to determine your role. Please contact support."
)

// Kind selects which dashboard is shown.
type Kind string

const (
	KindTherapist    Kind = "therapist"
	KindPatient      Kind = "patient"
	KindUndetermined Kind = "undetermined"
)

// Status tells whether every query behind a view succeeded.
type Status string

const (
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
)

// PatientSummary is one entry of a therapist's patient list.
type PatientSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Appointments int    `json:"appointments"`
}

// View is the composed dashboard.
type View struct {
	Kind         Kind                      `json:"kind"`
	Status       Status                    `json:"status"`
	Account      shared.AccountResponse    `json:"account"`
	Appointments []appointment.Appointment `json:"appointments,omitempty"`
	Patients     []PatientSummary          `json:"patients,omitempty"`
	History      []history.Record          `json:"history,omitempty"`
	Message      string                    `json:"message,omitempty"`
	Error        string                    `json:"error,omitempty"`
}

// AppointmentLister lists a participant's appointments.
type AppointmentLister interface {
	ListFor(ctx context.Context, participantID, role string) ([]appointment.Appointment, error)
}

// Composer builds dashboard views.
type Composer struct {
	appointments AppointmentLister
	history      history.Repository
	logger       *zap.Logger
}

// NewComposer creates a dashboard composer.
func NewComposer(appointments AppointmentLister, records history.Repository, logger *zap.Logger) *Composer {
	return &Composer{appointments: appointments, history: records, logger: logger.Named("DashboardComposer")}
}

// Compose returns the view for st. Query failures produce a degraded view, not an
// error; only a missing session is an error.
func (d *Composer) Compose(ctx context.Context, st session.State) (*View, error) {
	if !st.SignedIn() {
		return nil, common.ErrUnauthorized
	}
	account := shared.ToAccountResponse(st.User)

	switch st.User.Role {
	case common.RoleTherapist:
		return d.therapistView(ctx, st.User, account), nil
	case common.RolePatient:
		return d.patientView(ctx, st.User, account), nil
	default:
		d.logger.Warn("Dashboard requested without a known role", zap.String("userID", st.User.ID), zap.String("role", st.User.Role))
		return &View{Kind: KindUndetermined, Status: StatusReady, Account: account, Message: MsgRoleUndetermined}, nil
	}
}

func (d *Composer) therapistView(ctx context.Context, user *shared.Account, account shared.AccountResponse) *View {
	v := &View{Kind: KindTherapist, Status: StatusReady, Account: account}
	list, err := d.appointments.ListFor(ctx, user.ID, common.RoleTherapist)
	if err != nil {
		d.logger.Error("Failed to load therapist appointments", zap.String("therapistID", user.ID), zap.Error(err))
		v.Status = StatusDegraded
		v.Error = err.Error()
		return v
	}
	v.Appointments = list
	v.Patients = PatientsOf(list)
	if len(list) == 0 {
		v.Message = MsgNoAppointments
	}
	return v
}

func (d *Composer) patientView(ctx context.Context, user *shared.Account, account shared.AccountResponse) *View {
	v := &View{Kind: KindPatient, Status: StatusReady, Account: account}
	records, err := d.history.FindByPatient(ctx, user.ID)
	if err != nil {
		d.logger.Error("Failed to load therapy history", zap.String("patientID", user.ID), zap.Error(err))
		v.Status = StatusDegraded
		v.Error = err.Error()
		return v
	}
	v.History = records
	if len(records) == 0 {
		v.Message = MsgNoHistory
	}
	return v
}

// PatientsOf derives the distinct patients of a therapist's appointments, ordered
// by name then id.
func PatientsOf(list []appointment.Appointment) []PatientSummary {
	index := map[string]int{}
	out := []PatientSummary{}
	for _, a := range list {
		if a.PatientID == "" {
			continue
		}
		i, ok := index[a.PatientID]
		if !ok {
			i = len(out)
			index[a.PatientID] = i
			out = append(out, PatientSummary{ID: a.PatientID})
		}
		if out[i].Name == "" {
			out[i].Name = a.PatientName
		}
		out[i].Appointments++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
