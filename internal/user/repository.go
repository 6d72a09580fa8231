// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/shared"

	"gorm.io/gorm"
)

// Repository defines the interface for account data operations.
type Repository interface {
	Create(ctx context.Context, account *shared.Account) error
	FindByID(ctx context.Context, id string) (*shared.Account, error)
	FindByRole(ctx context.Context, role string) ([]shared.Account, error)
	UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*shared.Account, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Create inserts a new account row keyed by the provider uid.
func (r *gormRepository) Create(ctx context.Context, account *shared.Account) error {
	row := SharedToDB(account)
	row.Email = strings.ToLower(strings.TrimSpace(row.Email))
	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") ||
			strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return common.ErrConflict.WithDetails("An account with this id or email already exists.")
		}
		return err
	}
	account.CreatedAt, account.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

// FindByID retrieves an account by its provider uid.
func (r *gormRepository) FindByID(ctx context.Context, id string) (*shared.Account, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Account not found.")
		}
		return nil, err
	}
	return DBToShared(&userModel), nil
}

// FindByRole returns every account with the given role, ordered by name.
func (r *gormRepository) FindByRole(ctx context.Context, role string) ([]shared.Account, error) {
	var rows []User
	if err := r.db.WithContext(ctx).Where("role = ?", role).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]shared.Account, 0, len(rows))
	for i := range rows {
		out = append(out, *DBToShared(&rows[i]))
	}
	return out, nil
}

// UpdateProfile applies changes to an existing account and returns the result.
func (r *gormRepository) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (*shared.Account, error) {
	var result *shared.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row User
		if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrNotFound.WithDetails("Account not found.")
			}
			return err
		}
		account := DBToShared(&row)
		applyChanges(account, changes)
		account.UpdatedAt = time.Now().UTC()
		updated := SharedToDB(account)
		if err := tx.Save(updated).Error; err != nil {
			return err
		}
		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
