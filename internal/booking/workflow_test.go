package booking

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/therapist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCreator records creates. block, when set, is waited on before returning.
type fakeCreator struct {
	mu      sync.Mutex
	created []appointment.NewAppointment
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeCreator) Create(ctx context.Context, in appointment.NewAppointment) (*appointment.Appointment, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &appointment.Appointment{
		ID:           fmt.Sprintf("a%d", len(f.created)),
		Date:         in.Date,
		Time:         in.Time,
		TherapistRef: in.Therapist,
		PatientID:    in.PatientID,
		PatientName:  in.PatientName,
		Status:       appointment.StatusPending,
	}, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func readyDirectory() therapist.Directory {
	return therapist.Directory{
		Status: therapist.DirectoryReady,
		Therapists: []therapist.Profile{
			{ID: "T-katty", Name: "Katty Houston", Specialization: "Art therapy"},
			{ID: "T-jam", Name: "Jamillah Ssozi"},
		},
	}
}

var booker = Patient{ID: "P-1", Name: "Ada"}

func openForm(t *testing.T, wf *Workflow, therapistID string) {
	t.Helper()
	require.NoError(t, wf.Select(readyDirectory(), therapistID))
	require.NoError(t, wf.OpenForm())
}

func TestWorkflow_SubmitCreatesOnePendingAppointment(t *testing.T) {
	creator := &fakeCreator{}
	wf := NewWorkflow(creator, booker, time.Second)
	openForm(t, wf, "T-katty")
	require.NoError(t, wf.Fill("2024-06-01", "14:00"))

	got, err := wf.Submit(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, creator.count())
	assert.Equal(t, appointment.StatusPending, got.Status)
	assert.Equal(t, "P-1", got.PatientID)
	assert.Equal(t, appointment.TherapistRef{ID: "T-katty", Name: "Katty Houston"}, got.TherapistRef)
	assert.Equal(t, "2024-06-01", got.Date)
	assert.Equal(t, "14:00", got.Time)

	assert.Equal(t, StateIdle, wf.State())
	assert.Equal(t, []appointment.Appointment{*got}, wf.Appointments())
}

func TestWorkflow_BlankInputDoesNotSubmit(t *testing.T) {
	cases := map[string][2]string{
		"empty date": {"", "14:00"},
		"empty time": {"2024-06-01", ""},
		"blank both": {"  ", "\t"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			creator := &fakeCreator{}
			wf := NewWorkflow(creator, booker, time.Second)
			var sawSubmitting bool
			wf.OnSubmitting(func(Snapshot) { sawSubmitting = true })
			openForm(t, wf, "T-katty")
			require.NoError(t, wf.Fill(in[0], in[1]))

			_, err := wf.Submit(context.Background())

			apiErr, ok := common.IsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
			assert.False(t, sawSubmitting)
			assert.Zero(t, creator.count())
			assert.Equal(t, StateFormOpen, wf.State())
		})
	}
}

func TestWorkflow_TimeoutFailsAndKeepsInput(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{})}
	defer close(creator.block)
	wf := NewWorkflow(creator, booker, 20*time.Millisecond)
	openForm(t, wf, "T-katty")
	require.NoError(t, wf.Fill("2024-06-01", "14:00"))

	_, err := wf.Submit(context.Background())

	assert.ErrorIs(t, err, common.ErrBookingTimeout)
	assert.Equal(t, StateFailed, wf.State())
	snap := wf.Snapshot()
	assert.Equal(t, "2024-06-01", snap.Date)
	assert.Equal(t, "14:00", snap.Time)
	assert.NotEmpty(t, snap.Error)
	assert.Zero(t, creator.count())
}

func TestWorkflow_StoreErrorFailsThenRetrySucceeds(t *testing.T) {
	creator := &fakeCreator{err: common.ErrWriteFailed.WithDetails("permission denied")}
	wf := NewWorkflow(creator, booker, time.Second)
	openForm(t, wf, "T-jam")
	require.NoError(t, wf.Fill("2024-06-02", "09:30"))

	_, err := wf.Submit(context.Background())
	assert.ErrorIs(t, err, common.ErrWriteFailed)
	assert.Equal(t, StateFailed, wf.State())
	assert.Zero(t, creator.count())

	creator.mu.Lock()
	creator.err = nil
	creator.mu.Unlock()
	got, err := wf.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "09:30", got.Time)
	assert.Equal(t, 1, creator.count())
}

func TestWorkflow_SelectRequiresReadyDirectory(t *testing.T) {
	wf := NewWorkflow(&fakeCreator{}, booker, time.Second)

	err := wf.Select(therapist.Directory{Status: therapist.DirectoryFailed}, "T-katty")
	assert.ErrorIs(t, err, ErrDirectoryNotReady)

	err = wf.Select(readyDirectory(), "T-missing")
	assert.ErrorIs(t, err, ErrTherapistNotFound)
	assert.Equal(t, StateIdle, wf.State())
}

func TestWorkflow_RejectsStepsOutOfOrder(t *testing.T) {
	wf := NewWorkflow(&fakeCreator{}, booker, time.Second)

	assert.ErrorIs(t, wf.OpenForm(), ErrOutOfOrder)
	assert.ErrorIs(t, wf.Fill("2024-06-01", "14:00"), ErrOutOfOrder)
	_, err := wf.Submit(context.Background())
	assert.ErrorIs(t, err, ErrOutOfOrder)

	require.NoError(t, wf.Select(readyDirectory(), "T-katty"))
	assert.ErrorIs(t, wf.Fill("2024-06-01", "14:00"), ErrOutOfOrder)
}

func TestWorkflow_CancelDiscardsInput(t *testing.T) {
	creator := &fakeCreator{}
	wf := NewWorkflow(creator, booker, time.Second)
	openForm(t, wf, "T-katty")
	require.NoError(t, wf.Fill("2024-06-01", "14:00"))

	require.NoError(t, wf.Cancel())

	snap := wf.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Therapist)
	assert.Empty(t, snap.Date)
	assert.Zero(t, creator.count())
}

func TestWorkflow_CancelRejectedWhileSubmitting(t *testing.T) {
	creator := &fakeCreator{block: make(chan struct{}), started: make(chan struct{}, 1)}
	wf := NewWorkflow(creator, booker, time.Second)
	openForm(t, wf, "T-katty")
	require.NoError(t, wf.Fill("2024-06-01", "14:00"))

	done := make(chan error, 1)
	go func() {
		_, err := wf.Submit(context.Background())
		done <- err
	}()
	<-creator.started

	assert.ErrorIs(t, wf.Cancel(), ErrSubmitInProgress)
	_, err := wf.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.True(t, IsWorkflowError(err))

	close(creator.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, creator.count())
}

func TestWorkflow_ConcurrentBookingsForSameSlotBothSucceed(t *testing.T) {
	creator := &fakeCreator{}
	var wg sync.WaitGroup
	results := make([]*appointment.Appointment, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wf := NewWorkflow(creator, Patient{ID: fmt.Sprintf("P-%d", i)}, time.Second)
			if err := wf.Select(readyDirectory(), "T-katty"); err != nil {
				errs[i] = err
				return
			}
			if err := wf.OpenForm(); err != nil {
				errs[i] = err
				return
			}
			if err := wf.Fill("2024-06-01", "14:00"); err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = wf.Submit(context.Background())
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, 2, creator.count())
	assert.NotEqual(t, results[0].ID, results[1].ID)
}

func TestWorkflow_SuccessMergesByID(t *testing.T) {
	wf := NewWorkflow(&fakeCreator{}, booker, time.Second)
	existing := appointment.Appointment{ID: "a1", Date: "2024-05-01", Status: appointment.StatusConfirmed}
	wf.SetAppointments([]appointment.Appointment{existing})
	openForm(t, wf, "T-katty")
	require.NoError(t, wf.Fill("2024-06-01", "14:00"))

	got, err := wf.Submit(context.Background())
	require.NoError(t, err)

	// The fake assigns "a1" to the first create, so the stored copy replaces the
	// existing entry instead of being duplicated.
	list := wf.Appointments()
	require.Len(t, list, 1)
	assert.Equal(t, *got, list[0])
}

func TestRestoreWorkflow_LapsedSubmissionBecomesFailed(t *testing.T) {
	ref := appointment.TherapistRef{ID: "T-katty", Name: "Katty Houston"}
	wf := RestoreWorkflow(&fakeCreator{}, booker, time.Second, Snapshot{
		ID: "d1", PatientID: "P-1", State: StateSubmitting, Therapist: &ref, Date: "2024-06-01", Time: "14:00",
		UpdatedAt: time.Now().Add(-time.Minute),
	})

	assert.Equal(t, StateFailed, wf.State())
	assert.Error(t, wf.Err())

	got, err := wf.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ref, got.TherapistRef)
	assert.NoError(t, wf.Err())
}

func TestRestoreWorkflow_RecentSubmissionStaysInProgress(t *testing.T) {
	ref := appointment.TherapistRef{ID: "T-katty", Name: "Katty Houston"}
	creator := &fakeCreator{}
	wf := RestoreWorkflow(creator, booker, time.Minute, Snapshot{
		ID: "d1", PatientID: "P-1", State: StateSubmitting, Therapist: &ref, Date: "2024-06-01", Time: "14:00",
		UpdatedAt: time.Now(),
	})

	assert.Equal(t, StateSubmitting, wf.State())
	_, err := wf.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, wf.Cancel(), ErrSubmitInProgress)
	assert.ErrorIs(t, wf.Fill("2024-06-02", "10:00"), ErrSubmitInProgress)
	assert.Equal(t, 0, creator.count())
}

func TestRestoreWorkflow_MissingTherapistResetsToIdle(t *testing.T) {
	for _, state := range []State{StateTherapistSelected, StateFormOpen, StateFailed, StateSubmitting} {
		creator := &fakeCreator{}
		wf := RestoreWorkflow(creator, booker, time.Second, Snapshot{
			ID: "d1", PatientID: "P-1", State: state, Date: "2024-06-01", Time: "14:00", UpdatedAt: time.Now(),
		})

		assert.Equal(t, StateIdle, wf.State(), state)
		_, err := wf.Submit(context.Background())
		assert.ErrorIs(t, err, ErrOutOfOrder, state)
		assert.Equal(t, 0, creator.count())
	}
}
