package user

import (
	"creative_cure_backend/internal/shared"
)

// DBToShared converts a relational User row to a shared.Account.
func DBToShared(dbUser *User) *shared.Account {
	if dbUser == nil {
		return nil
	}
	return &shared.Account{
		ID:             dbUser.ID,
		Name:           dbUser.Name,
		Email:          dbUser.Email,
		Role:           dbUser.Role,
		Address:        dbUser.Address,
		Image:          dbUser.Image,
		Specialization: dbUser.Specialization,
		Description:    dbUser.Description,
		Availability:   dbUser.Availability,
		CreatedAt:      dbUser.CreatedAt,
		UpdatedAt:      dbUser.UpdatedAt,
	}
}

// SharedToDB converts a shared.Account to a relational User row.
func SharedToDB(a *shared.Account) *User {
	return &User{
		ID:             a.ID,
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		Address:        a.Address,
		Image:          a.Image,
		Specialization: a.Specialization,
		Description:    a.Description,
		Availability:   a.Availability,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func documentToShared(id string, doc *userDocument) *shared.Account {
	return &shared.Account{
		ID:             id,
		Name:           doc.Name,
		Email:          doc.Email,
		Role:           doc.Role,
		Address:        doc.Address,
		Image:          doc.Image,
		Specialization: doc.Specialization,
		Description:    doc.Description,
		Availability:   doc.Availability,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
	}
}

func sharedToDocument(a *shared.Account) *userDocument {
	return &userDocument{
		Name:           a.Name,
		Email:          a.Email,
		Role:           a.Role,
		Address:        a.Address,
		Image:          a.Image,
		Specialization: a.Specialization,
		Description:    a.Description,
		Availability:   a.Availability,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// applyChanges writes the non-nil fields of c onto a.
func applyChanges(a *shared.Account, c ProfileChanges) {
	if c.Name != nil {
		a.Name = *c.Name
	}
	if c.Address != nil {
		a.Address = *c.Address
	}
	if c.Image != nil {
		a.Image = *c.Image
	}
	if c.Specialization != nil {
		a.Specialization = *c.Specialization
	}
	if c.Description != nil {
		a.Description = *c.Description
	}
	if c.Availability != nil {
		a.Availability = c.Availability
	}
}
