package appointment

import (
	"context"
	"fmt"

	"creative_cure_backend/internal/common"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const appointmentsCollection = "appointments"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores appointments in the appointments collection.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

// Create adds a document with a generated id.
func (r *firestoreRepository) Create(ctx context.Context, a *Appointment) error {
	ref := r.client.Collection(appointmentsCollection).NewDoc()
	if _, err := ref.Create(ctx, a.toDocument()); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	a.ID = ref.ID
	return nil
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*Appointment, error) {
	snap, err := r.client.Collection(appointmentsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, common.ErrNotFound.WithDetails("Appointment not found.")
		}
		return nil, err
	}
	return decode(snap)
}

func (r *firestoreRepository) FindByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	return r.findWhere(ctx, "patientId", patientID)
}

func (r *firestoreRepository) FindByTherapist(ctx context.Context, therapistID string) ([]Appointment, error) {
	return r.findWhere(ctx, "therapistId", therapistID)
}

func (r *firestoreRepository) findWhere(ctx context.Context, field, value string) ([]Appointment, error) {
	snaps, err := r.client.Collection(appointmentsCollection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(snaps))
	for _, snap := range snaps {
		a, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *firestoreRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error) {
	ref := r.client.Collection(appointmentsCollection).Doc(id)
	var result *Appointment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return common.ErrNotFound.WithDetails("Appointment not found.")
			}
			return err
		}
		a, err := decode(snap)
		if err != nil {
			return err
		}
		if a.Status != from {
			return common.ErrInvalidTransition.WithDetails("The appointment status changed concurrently.")
		}
		a.Status = to
		result = a
		return tx.Update(ref, []firestore.Update{{Path: "status", Value: string(to)}})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func decode(snap *firestore.DocumentSnapshot) (*Appointment, error) {
	var doc appointmentDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode appointments/%s: %w", snap.Ref.ID, err)
	}
	a := doc.toAppointment(snap.Ref.ID)
	return &a, nil
}
