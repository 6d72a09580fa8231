// File: internal/appointment/repository.go
package appointment

import (
	"context"
	"errors"
	"fmt"

	"creative_cure_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines the interface for appointment data operations.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id string) (*Appointment, error)
	FindByPatient(ctx context.Context, patientID string) ([]Appointment, error)
	FindByTherapist(ctx context.Context, therapistID string) ([]Appointment, error)
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM appointment repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new appointment, assigning a UUID when the ID is empty.
func (r *gormRepository) Create(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(a.toRow()).Error; err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id string) (*Appointment, error) {
	var row appointmentRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Appointment not found.")
		}
		return nil, err
	}
	a := row.toAppointment()
	return &a, nil
}

func (r *gormRepository) FindByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.findWhere(ctx, "patient_id = ?", patientID)
}

func (r *gormRepository) FindByTherapist(ctx context.Context, therapistID string) ([]Appointment, error) {
	return r.findWhere(ctx, "therapist_id = ?", therapistID)
}

func (r *gormRepository) findWhere(ctx context.Context, query string, arg string) ([]Appointment, error) {
	var rows []appointmentRow
	if err := r.db.WithContext(ctx).Where(query, arg).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toAppointment())
	}
	return out, nil
}

// UpdateStatus moves an appointment from one status to another. The update only
// applies while the stored status still equals from.
func (r *gormRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error) {
	result := r.db.WithContext(ctx).Model(&appointmentRow{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidTransition.WithDetails("The appointment status changed concurrently.")
	}
	return r.FindByID(ctx, id)
}
