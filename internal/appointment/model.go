// File: internal/appointment/model.go
package appointment

import (
	"time"
)

// Status of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is a known appointment status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// next lists the single status each status may advance to.
var next = map[Status]Status{
	StatusPending:   StatusConfirmed,
	StatusConfirmed: StatusCompleted,
}

// CanTransitionTo reports whether s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	return next[s] == target
}

// TherapistRef identifies the therapist of an appointment. ID is the foreign key;
// Name is a display copy taken at booking time.
type TherapistRef struct {
	ID   string `json:"therapistId"`
	Name string `json:"therapistName"`
}

// Appointment is a booked session between a patient and a therapist.
type Appointment struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Time string `json:"time"`
	TherapistRef
	PatientID   string    `json:"patientId"`
	PatientName string    `json:"patientName,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewAppointment is the input of a create. PatientID always comes from the session.
type NewAppointment struct {
	Date        string
	Time        string
	Therapist   TherapistRef
	PatientID   string
	PatientName string
}

// appointmentRow is the relational row (DATA_STORE=postgres|sqlite).
type appointmentRow struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)"`
	Date          string    `gorm:"type:varchar(10);not null"`
	Time          string    `gorm:"type:varchar(5);not null"`
	TherapistID   string    `gorm:"type:varchar(128);not null;index"`
	TherapistName string    `gorm:"type:varchar(200)"`
	PatientID     string    `gorm:"type:varchar(128);not null;index"`
	PatientName   string    `gorm:"type:varchar(200)"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt     time.Time `gorm:"index"`
}

// TableName specifies the table name for appointment rows.
func (appointmentRow) TableName() string {
	return "appointments"
}

// appointmentDocument is the shape of appointments/<id> in Firestore.
type appointmentDocument struct {
	Date          string `firestore:"date"`
	Time          string `firestore:"time"`
	TherapistID   string `firestore:"therapistId"`
	TherapistName string `firestore:"therapistName"`
	// LegacyTherapist is the display name older clients wrote instead of an id.
	LegacyTherapist string    `firestore:"therapist,omitempty"`
	PatientID       string    `firestore:"patientId"`
	PatientName     string    `firestore:"patientName,omitempty"`
	Status          string    `firestore:"status"`
	CreatedAt       time.Time `firestore:"createdAt"`
}

// Models returns the relational models owned by this package, for migration.
func Models() []interface{} {
	return []interface{}{&appointmentRow{}}
}

func (a *Appointment) toRow() *appointmentRow {
	return &appointmentRow{
		ID:            a.ID,
		Date:          a.Date,
		Time:          a.Time,
		TherapistID:   a.TherapistRef.ID,
		TherapistName: a.TherapistRef.Name,
		PatientID:     a.PatientID,
		PatientName:   a.PatientName,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

func (r *appointmentRow) toAppointment() Appointment {
	return Appointment{
		ID:           r.ID,
		Date:         r.Date,
		Time:         r.Time,
		TherapistRef: TherapistRef{ID: r.TherapistID, Name: r.TherapistName},
		PatientID:    r.PatientID,
		PatientName:  r.PatientName,
		Status:       Status(r.Status),
		CreatedAt:    r.CreatedAt,
	}
}

func (a *Appointment) toDocument() *appointmentDocument {
	return &appointmentDocument{
		Date:          a.Date,
		Time:          a.Time,
		TherapistID:   a.TherapistRef.ID,
		TherapistName: a.TherapistRef.Name,
		PatientID:     a.PatientID,
		PatientName:   a.PatientName,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
	}
}

func (d *appointmentDocument) toAppointment(id string) Appointment {
	ref := TherapistRef{ID: d.TherapistID, Name: d.TherapistName}
	if ref.Name == "" {
		ref.Name = d.LegacyTherapist
	}
	return Appointment{
		ID:           id,
		Date:         d.Date,
		Time:         d.Time,
		TherapistRef: ref,
		PatientID:    d.PatientID,
		PatientName:  d.PatientName,
		Status:       Status(d.Status),
		CreatedAt:    d.CreatedAt,
	}
}

// --- DTOs (Data Transfer Objects) for API requests ---

// UpdateStatusRequest is the body of PATCH /appointments/:id/status.
type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required,oneof=confirmed completed"`
}
