package therapist

import (
	"context"
	"errors"
	"testing"

	"creative_cure_backend/internal/appointment"
	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/platform/database"
	"creative_cure_backend/internal/shared"
	"creative_cure_backend/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAccounts struct {
	mock.Mock
}

func (m *MockAccounts) GetAccount(ctx context.Context, id string) (*shared.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Account), args.Error(1)
}

func (m *MockAccounts) ListAccountsByRole(ctx context.Context, role string) ([]shared.Account, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shared.Account), args.Error(1)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) Search(ctx context.Context, query string, limit int) ([]Profile, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Profile), args.Error(1)
}

func (m *MockIndexer) Bulk(ctx context.Context, profiles []Profile, refresh string) (IndexStats, error) {
	args := m.Called(ctx, profiles, refresh)
	return args.Get(0).(IndexStats), args.Error(1)
}

func TestListTherapists_RechecksRole(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("ListAccountsByRole", mock.Anything, common.RoleTherapist).Return([]shared.Account{
		{ID: "t1", Name: "Katty Houston", Role: common.RoleTherapist, Specialization: "Art therapy"},
		{ID: "p1", Name: "Leaked Patient", Role: common.RolePatient},
	}, nil)
	svc := NewService(accounts, nil, nil, zap.NewNop())

	dir := svc.ListTherapists(context.Background())
	require.True(t, dir.Ready())
	require.Len(t, dir.Therapists, 1)
	assert.Equal(t, "t1", dir.Therapists[0].ID)
	assert.False(t, dir.Empty)
}

func TestListTherapists_EmptyIsReady(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("ListAccountsByRole", mock.Anything, common.RoleTherapist).Return([]shared.Account{}, nil)
	svc := NewService(accounts, nil, nil, zap.NewNop())

	dir := svc.ListTherapists(context.Background())
	assert.True(t, dir.Ready())
	assert.True(t, dir.Empty)
	assert.NotNil(t, dir.Therapists)
}

func TestListTherapists_StoreFailure(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("ListAccountsByRole", mock.Anything, common.RoleTherapist).Return(nil, errors.New("deadline exceeded"))
	svc := NewService(accounts, nil, nil, zap.NewNop())

	dir := svc.ListTherapists(context.Background())
	assert.Equal(t, DirectoryFailed, dir.Status)
	assert.Equal(t, "deadline exceeded", dir.Error)
}

func TestListTherapists_RefetchesEveryCall(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("ListAccountsByRole", mock.Anything, common.RoleTherapist).Return([]shared.Account{}, nil)
	svc := NewService(accounts, nil, nil, zap.NewNop())

	svc.ListTherapists(context.Background())
	svc.ListTherapists(context.Background())
	accounts.AssertNumberOfCalls(t, "ListAccountsByRole", 2)
}

func TestSignedUpTherapistAppearsInDirectory(t *testing.T) {
	db, err := database.OpenSQLiteMemory()
	require.NoError(t, err)
	defer database.CloseGORMDB(db)
	require.NoError(t, database.Migrate(db, &user.User{}))

	users := user.NewService(user.NewGORMRepository(db), nil, nil, zap.NewNop())
	require.NoError(t, users.CreateAccount(context.Background(), &shared.Account{
		ID: "uid-jamillah", Name: "Jamillah Ssozi", Email: "jamillah@example.com", Role: common.RoleTherapist,
	}))
	require.NoError(t, users.CreateAccount(context.Background(), &shared.Account{
		ID: "uid-pat", Name: "Pat", Email: "pat@example.com",
	}))

	svc := NewService(users, nil, nil, zap.NewNop())
	dir := svc.ListTherapists(context.Background())
	require.True(t, dir.Ready())
	p, ok := dir.Find("uid-jamillah")
	require.True(t, ok)
	assert.Equal(t, "Jamillah Ssozi", p.Name)
	assert.Len(t, dir.Therapists, 1)
}

func TestListAppointmentsFor_Delegates(t *testing.T) {
	apptRepo := appointment.NewGORMRepository(nil)
	appts := appointment.NewService(apptRepo, nil, zap.NewNop())
	svc := NewService(new(MockAccounts), appts, nil, zap.NewNop())

	got, err := svc.ListAppointmentsFor(context.Background(), "", common.RolePatient)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.ListAppointmentsFor(context.Background(), "x", "admin")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchTherapists_Disabled(t *testing.T) {
	svc := NewService(new(MockAccounts), nil, nil, zap.NewNop())
	_, err := svc.SearchTherapists(context.Background(), "art")
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestSyncIndex_Batches(t *testing.T) {
	accounts := new(MockAccounts)
	accounts.On("ListAccountsByRole", mock.Anything, common.RoleTherapist).Return([]shared.Account{
		{ID: "t1", Role: common.RoleTherapist}, {ID: "t2", Role: common.RoleTherapist}, {ID: "t3", Role: common.RoleTherapist},
	}, nil)
	index := new(MockIndexer)
	index.On("Bulk", mock.Anything, mock.MatchedBy(func(p []Profile) bool { return len(p) == 2 }), "false").Return(IndexStats{Indexed: 2}, nil).Once()
	index.On("Bulk", mock.Anything, mock.MatchedBy(func(p []Profile) bool { return len(p) == 1 }), "false").Return(IndexStats{Indexed: 0, Failed: 1}, nil).Once()
	svc := NewService(accounts, nil, index, zap.NewNop())

	stats, err := svc.SyncIndex(context.Background(), 2, "false")
	assert.Error(t, err)
	assert.Equal(t, IndexStats{Indexed: 2, Failed: 1}, stats)
	index.AssertExpectations(t)
}
