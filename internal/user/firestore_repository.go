package user

import (
	"context"
	"fmt"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/shared"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

type firestoreRepository struct {
	client *firestore.Client
}

// NewFirestoreRepository stores accounts as users/<uid> documents.
func NewFirestoreRepository(client *firestore.Client) Repository {
	return &firestoreRepository{client: client}
}

func (r *firestoreRepository) Create(ctx context.Context, account *shared.Account) error {
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	_, err := r.client.Collection(usersCollection).Doc(account.ID).Create(ctx, sharedToDocument(account))
	if status.Code(err) == codes.AlreadyExists {
		return common.ErrConflict.WithDetails("An account with this id already exists.")
	}
	return err
}

func (r *firestoreRepository) FindByID(ctx context.Context, id string) (*shared.Account, error) {
	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, common.ErrNotFound.WithDetails("Account not found.")
		}
		return nil, err
	}
	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode users/%s: %w", id, err)
	}
	return documentToShared(snap.Ref.ID, &doc), nil
}

func (r *firestoreRepository) FindByRole(ctx context.Context, role string) ([]shared.Account, error) {
	snaps, err := r.client.Collection(usersCollection).Where("role", "==", role).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]shared.Account, 0, len(snaps))
	for _, snap := range snaps {
		var doc userDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode users/%s: %w", snap.Ref.ID, err)
		}
		out = append(out, *documentToShared(snap.Ref.ID, &doc))
	}
	return out, nil
}

func (r *firestoreRepository) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*shared.Account, error) {
	ref := r.client.Collection(usersCollection).Doc(id)
	var result *shared.Account
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return common.ErrNotFound.WithDetails("Account not found.")
			}
			return err
		}
		var doc userDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode users/%s: %w", id, err)
		}
		account := documentToShared(id, &doc)
		applyChanges(account, changes)
		account.UpdatedAt = time.Now().UTC()
		result = account
		return tx.Set(ref, sharedToDocument(account))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
