// File: internal/user/model.go
package user

import (
	"time"
)

// User is the relational row for an account (DATA_STORE=postgres|sqlite).
type User struct {
	ID             string              `gorm:"primaryKey;type:varchar(128)"`
	Name           string              `gorm:"type:varchar(200);not null"`
	Email          string              `gorm:"type:varchar(255);uniqueIndex"`
	Role           string              `gorm:"type:varchar(20);index"`
	Address        string              `gorm:"type:text"`
	Image          string              `gorm:"type:text"`
	Specialization string              `gorm:"type:varchar(200)"`
	Description    string              `gorm:"type:text"`
	Availability   map[string][]string `gorm:"serializer:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// userDocument is the shape of users/<uid> in Firestore. The uid is the document id.
type userDocument struct {
	Name           string              `firestore:"name"`
	Email          string              `firestore:"email"`
	Role           string              `firestore:"role,omitempty"`
	Address        string              `firestore:"address,omitempty"`
	Image          string              `firestore:"image,omitempty"`
	Specialization string              `firestore:"specialization,omitempty"`
	Description    string              `firestore:"description,omitempty"`
	Availability   map[string][]string `firestore:"availability,omitempty"`
	CreatedAt      time.Time           `firestore:"createdAt,omitempty"`
	UpdatedAt      time.Time           `firestore:"updatedAt,omitempty"`
}

// ProfileChanges lists the fields a profile edit may touch. Nil means unchanged.
type ProfileChanges struct {
	Name           *string
	Address        *string
	Image          *string
	Specialization *string
	Description    *string
	Availability   map[string][]string
}

// Empty reports whether no field is set.
func (p ProfileChanges) Empty() bool {
	return p.Name == nil && p.Address == nil && p.Image == nil &&
		p.Specialization == nil && p.Description == nil && p.Availability == nil
}

// --- DTOs (Data Transfer Objects) for API requests/responses ---

// UpdateProfileRequest is the body of PUT /profile.
type UpdateProfileRequest struct {
	Name           *string             `json:"name,omitempty" binding:"omitempty,notblank,max=200"`
	Address        *string             `json:"address,omitempty" binding:"omitempty,max=500"`
	Specialization *string             `json:"specialization,omitempty" binding:"omitempty,max=200"`
	Description    *string             `json:"description,omitempty" binding:"omitempty,max=2000"`
	Availability   map[string][]string `json:"availability,omitempty"`
}
