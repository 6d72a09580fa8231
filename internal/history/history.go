// Package history reads therapy history records. Records are written outside this
// service; there is no create path here.
package history

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"gorm.io/gorm"
)

const recordsCollection = "therapyHistory"

// Record is one past therapy session of a patient.
type Record struct {
	ID            string `json:"id"`
	PatientID     string `json:"patientId"`
	Date          string `json:"date"`
	TherapistName string `json:"therapistName"`
	Notes         string `json:"notes,omitempty"`
}

// Repository reads history records.
type Repository interface {
	FindByPatient(ctx context.Context, patientID string) ([]Record, error)
}

type recordRow struct {
	ID            string `gorm:"primaryKey;type:varchar(64)"`
	PatientID     string `gorm:"type:varchar(128);not null;index"`
	Date          string `gorm:"type:varchar(10)"`
	TherapistName string `gorm:"type:varchar(200)"`
	Notes         string `gorm:"type:text"`
}

func (recordRow) TableName() string { return "therapy_history" }

// Models returns the relational models owned by this package, for migration.
func Models() []interface{} {
	return []interface{}{&recordRow{}}
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a history repository over a relational store.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByPatient(ctx context.Context, patientID string) ([]Record, error) {
	var rows []recordRow
	if err := r.db.WithContext(ctx).Where("patient_id = ?", patientID).Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, Record(row))
	}
	return out, nil
}

type recordDocument struct {
	PatientID     string `firestore:"patientId"`
	Date          string `firestore:"date"`
	TherapistName string `firestore:"therapistName"`
	Notes         string `firestore:"notes,omitempty"`
}

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository reads the therapyHistory collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) FindByPatient(ctx context.Context, patientID string) ([]Record, error) {
	snaps, err := r.client.Collection(recordsCollection).Where("patientId", "==", patientID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(snaps))
	for _, snap := range snaps {
		var doc recordDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", recordsCollection, snap.Ref.ID, err)
		}
		out = append(out, Record{
			ID:            snap.Ref.ID,
			PatientID:     doc.PatientID,
			Date:          doc.Date,
			TherapistName: doc.TherapistName,
			Notes:         doc.Notes,
		})
	}
	return out, nil
}
