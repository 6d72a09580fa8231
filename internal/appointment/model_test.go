package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentDecode_LegacyTherapistName(t *testing.T) {
	doc := appointmentDocument{Date: "2024-06-01", Time: "14:00", LegacyTherapist: "Katty Houston", PatientID: "P1", Status: "pending"}
	a := doc.toAppointment("a1")

	assert.Equal(t, "a1", a.ID)
	assert.Empty(t, a.TherapistRef.ID)
	assert.Equal(t, "Katty Houston", a.TherapistRef.Name)
}

func TestDocumentDecode_PrefersTypedReference(t *testing.T) {
	doc := appointmentDocument{TherapistID: "T1", TherapistName: "Katty Houston", LegacyTherapist: "Old Name"}
	a := doc.toAppointment("a2")

	assert.Equal(t, TherapistRef{ID: "T1", Name: "Katty Houston"}, a.TherapistRef)
}
