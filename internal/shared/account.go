package shared

import (
	"context"
	"time"
)

// Account is the service-level view of a document in the users collection.
type Account struct {
	ID      string
	Name    string
	Email   string
	Role    string
	Address string
	Image   string

	// Directory fields, only meaningful for therapists.
	Specialization string
	Description    string
	Availability   map[string][]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountService is the subset of account operations other packages depend on.
type AccountService interface {
	GetAccount(ctx context.Context, id string) (*Account, error)
	ListAccountsByRole(ctx context.Context, role string) ([]Account, error)
}

// AccountResponse defines the structure for account data sent in API responses.
type AccountResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Email          string              `json:"email"`
	Role           string              `json:"role,omitempty"`
	Address        string              `json:"address,omitempty"`
	Image          string              `json:"image,omitempty"`
	Specialization string              `json:"specialization,omitempty"`
	Description    string              `json:"description,omitempty"`
	Availability   map[string][]string `json:"availability,omitempty"`
}

// ToAccountResponse converts an Account to its API representation.
func ToAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		Address:        a.Address,
		Image:          a.Image,
		Specialization: a.Specialization,
		Description:    a.Description,
		Availability:   a.Availability,
	}
}
