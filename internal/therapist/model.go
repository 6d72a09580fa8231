// File: internal/therapist/model.go
package therapist

import (
	"sort"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/shared"
)

// Profile is the directory projection of a therapist account.
type Profile struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Specialization string              `json:"specialization,omitempty"`
	Description    string              `json:"description,omitempty"`
	Image          string              `json:"image,omitempty"`
	Availability   map[string][]string `json:"availability,omitempty"`
}

// Ref returns the typed reference stored on appointments.
func (p Profile) Ref() appointment.TherapistRef {
	return appointment.TherapistRef{ID: p.ID, Name: p.Name}
}

// ProfileFromAccount maps an account to a directory profile. The second result is
// false for accounts that are not therapists.
func ProfileFromAccount(a shared.Account) (Profile, bool) {
	if a.Role != common.RoleTherapist {
		return Profile{}, false
	}
	return Profile{
		ID:             a.ID,
		Name:           a.Name,
		Specialization: a.Specialization,
		Description:    a.Description,
		Image:          a.Image,
		Availability:   a.Availability,
	}, true
}

// DirectoryStatus is the load state of a directory snapshot.
type DirectoryStatus string

const (
	DirectoryReady  DirectoryStatus = "ready"
	DirectoryFailed DirectoryStatus = "failed"
)

// Directory is one snapshot of the therapist list.
type Directory struct {
	Status     DirectoryStatus `json:"status"`
	Therapists []Profile       `json:"therapists"`
	Empty      bool            `json:"empty"`
	Error      string          `json:"error,omitempty"`
	FetchedAt  time.Time       `json:"fetchedAt"`
}

// Ready reports whether the snapshot loaded.
func (d Directory) Ready() bool {
	return d.Status == DirectoryReady
}

// Find returns the therapist with id from a ready snapshot.
func (d Directory) Find(id string) (Profile, bool) {
	for _, p := range d.Therapists {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// availableDays lists the days with at least one slot, sorted.
func (p Profile) availableDays() []string {
	days := make([]string, 0, len(p.Availability))
	for day, slots := range p.Availability {
		if len(slots) > 0 {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days
}
