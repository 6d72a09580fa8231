package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"creative_cure_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAppointmentRepository is a mock type for appointment.Repository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *Appointment) error {
	args := m.Called(ctx, a)
	if args.Error(0) == nil && a.ID == "" {
		a.ID = "generated-id"
	}
	return args.Error(0)
}

func (m *MockAppointmentRepository) FindByID(ctx context.Context, id string) (*Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) FindByTherapist(ctx context.Context, therapistID string) ([]Appointment, error) {
	args := m.Called(ctx, therapistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (*Appointment, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Appointment), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

func setupAppointmentService() (*ServiceImplementation, *MockAppointmentRepository, *MockPublisher) {
	repo, pub := new(MockAppointmentRepository), new(MockPublisher)
	svc := NewService(repo, pub, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC) }
	return svc, repo, pub
}

func TestCreate_PendingWithSessionPatient(t *testing.T) {
	svc, repo, pub := setupAppointmentService()
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(a *Appointment) bool {
		return a.Status == StatusPending && a.PatientID == "p1" &&
			a.TherapistRef == TherapistRef{ID: "t1", Name: "Katty Houston"} &&
			a.Date == "2024-06-01" && a.Time == "14:00"
	})).Return(nil).Once()
	pub.On("Publish", ctx, EventCreated, mock.AnythingOfType("*appointment.Appointment")).Return(nil).Once()

	got, err := svc.Create(ctx, NewAppointment{
		Date: "2024-06-01", Time: "14:00", PatientID: "p1",
		Therapist: TherapistRef{ID: "t1", Name: "Katty Houston"},
	})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", got.ID)
	assert.Equal(t, StatusPending, got.Status)
	repo.AssertNumberOfCalls(t, "Create", 1)
	pub.AssertExpectations(t)
}

func TestCreate_BlankFieldsDoNotWrite(t *testing.T) {
	svc, repo, _ := setupAppointmentService()

	for _, in := range []NewAppointment{
		{Date: "", Time: "14:00", PatientID: "p1", Therapist: TherapistRef{ID: "t1"}},
		{Date: "2024-06-01", Time: "  ", PatientID: "p1", Therapist: TherapistRef{ID: "t1"}},
		{Date: "2024-06-01", Time: "14:00", PatientID: "", Therapist: TherapistRef{ID: "t1"}},
	} {
		_, err := svc.Create(context.Background(), in)
		assert.ErrorIs(t, err, common.NewValidationAPIError(nil))
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_StoreErrorIsWriteFailed(t *testing.T) {
	svc, repo, pub := setupAppointmentService()
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("permission denied"))

	_, err := svc.Create(context.Background(), NewAppointment{Date: "2024-06-01", Time: "14:00", PatientID: "p1", Therapist: TherapistRef{ID: "t1"}})
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "WRITE_FAILED", apiErr.Code)
	assert.Equal(t, "permission denied", apiErr.Details)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_PublishFailureIsNotFatal(t *testing.T) {
	svc, repo, pub := setupAppointmentService()
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("circuit breaker is open"))

	_, err := svc.Create(context.Background(), NewAppointment{Date: "2024-06-01", Time: "14:00", PatientID: "p1", Therapist: TherapistRef{ID: "t1"}})
	assert.NoError(t, err)
}

func TestListFor(t *testing.T) {
	svc, repo, _ := setupAppointmentService()
	ctx := context.Background()
	mine := []Appointment{{ID: "a1", PatientID: "P"}}
	repo.On("FindByPatient", ctx, "P").Return(mine, nil).Once()
	repo.On("FindByTherapist", ctx, "T").Return(nil, nil).Once()

	got, err := svc.ListFor(ctx, "P", "patient")
	require.NoError(t, err)
	assert.Equal(t, mine, got)

	got, err = svc.ListFor(ctx, "T", "therapist")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got, err = svc.ListFor(ctx, "", "patient")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.ListFor(ctx, "X", "admin")
	require.NoError(t, err)
	assert.Empty(t, got)

	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "FindByPatient", 1)
}

func TestListFor_StoreError(t *testing.T) {
	svc, repo, _ := setupAppointmentService()
	repo.On("FindByPatient", mock.Anything, "P").Return(nil, errors.New("unavailable"))

	_, err := svc.ListFor(context.Background(), "P", "patient")
	assert.ErrorContains(t, err, "unavailable")
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	pending := &Appointment{ID: "a1", TherapistRef: TherapistRef{ID: "t1"}, PatientID: "p1", Status: StatusPending}

	t.Run("owner confirms", func(t *testing.T) {
		svc, repo, pub := setupAppointmentService()
		repo.On("FindByID", ctx, "a1").Return(pending, nil)
		confirmed := *pending
		confirmed.Status = StatusConfirmed
		repo.On("UpdateStatus", ctx, "a1", StatusPending, StatusConfirmed).Return(&confirmed, nil)
		pub.On("Publish", ctx, EventStatusChanged, StatusChange{
			AppointmentID: "a1", TherapistID: "t1", PatientID: "p1", From: StatusPending, To: StatusConfirmed,
		}).Return(nil).Once()

		got, err := svc.UpdateStatus(ctx, "t1", "a1", StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, StatusConfirmed, got.Status)
		pub.AssertExpectations(t)
	})

	t.Run("other therapist is forbidden", func(t *testing.T) {
		svc, repo, _ := setupAppointmentService()
		repo.On("FindByID", ctx, "a1").Return(pending, nil)

		_, err := svc.UpdateStatus(ctx, "t2", "a1", StatusConfirmed)
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("skipping a step is rejected", func(t *testing.T) {
		svc, repo, _ := setupAppointmentService()
		repo.On("FindByID", ctx, "a1").Return(pending, nil)

		_, err := svc.UpdateStatus(ctx, "t1", "a1", StatusCompleted)
		assert.ErrorIs(t, err, common.ErrInvalidTransition)
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
	assert.False(t, Status("cancelled").IsValid())
}

func TestMergeByID(t *testing.T) {
	list := []Appointment{{ID: "a1", Status: StatusPending}, {ID: "a2"}}

	merged := MergeByID(list, Appointment{ID: "a1", Status: StatusConfirmed}, Appointment{ID: "a3"})
	require.Len(t, merged, 3)
	assert.Equal(t, StatusConfirmed, merged[0].Status)
	assert.Equal(t, "a3", merged[2].ID)
	assert.Equal(t, StatusPending, list[0].Status, "input must not be modified")

	again := MergeByID(merged, Appointment{ID: "a3"})
	assert.Len(t, again, 3, "an optimistic copy and the stored copy never both appear")
}
