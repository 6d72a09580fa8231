package booking

// BookRequest is the one-shot booking payload. Blank date or time is reported by
// the workflow so that no write happens.
type BookRequest struct {
	TherapistID string `json:"therapistId" binding:"required,notblank"`
	Date        string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time        string `json:"time" binding:"omitempty,datetime=15:04"`
}

// StartDraftRequest opens a booking form for a therapist.
type StartDraftRequest struct {
	TherapistID string `json:"therapistId" binding:"required,notblank"`
}

// FillRequest carries the form input of a draft.
type FillRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Time string `json:"time" binding:"omitempty,datetime=15:04"`
}
