package user

import (
	"context"
	"testing"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/platform/database"
	"creative_cure_backend/internal/shared"

	"github.com/stretchr/testify/suite"
)

type GORMRepositorySuite struct {
	suite.Suite
	repo Repository
	ctx  context.Context
}

func (s *GORMRepositorySuite) SetupTest() {
	db, err := database.OpenSQLiteMemory()
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(db, &User{}))
	s.repo = NewGORMRepository(db)
	s.ctx = context.Background()
	s.T().Cleanup(func() { database.CloseGORMDB(db) })
}

func (s *GORMRepositorySuite) TestCreateAndFind() {
	err := s.repo.Create(s.ctx, &shared.Account{ID: "t1", Name: "Jamillah Ssozi", Email: "Jamillah@Example.com", Role: common.RoleTherapist})
	s.Require().NoError(err)

	got, err := s.repo.FindByID(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal("Jamillah Ssozi", got.Name)
	s.Equal("jamillah@example.com", got.Email)
	s.False(got.CreatedAt.IsZero())
}

func (s *GORMRepositorySuite) TestCreateDuplicateIsConflict() {
	a := &shared.Account{ID: "p1", Name: "P", Email: "p@example.com", Role: common.RolePatient}
	s.Require().NoError(s.repo.Create(s.ctx, a))
	err := s.repo.Create(s.ctx, &shared.Account{ID: "p1", Name: "P", Email: "other@example.com", Role: common.RolePatient})
	s.ErrorIs(err, common.ErrConflict)
}

func (s *GORMRepositorySuite) TestFindByIDMissing() {
	_, err := s.repo.FindByID(s.ctx, "nobody")
	s.ErrorIs(err, common.ErrNotFound)
}

func (s *GORMRepositorySuite) TestFindByRoleFilters() {
	s.Require().NoError(s.repo.Create(s.ctx, &shared.Account{ID: "t1", Name: "Katty Houston", Email: "k@example.com", Role: common.RoleTherapist}))
	s.Require().NoError(s.repo.Create(s.ctx, &shared.Account{ID: "p1", Name: "Pat", Email: "p@example.com", Role: common.RolePatient}))

	therapists, err := s.repo.FindByRole(s.ctx, common.RoleTherapist)
	s.Require().NoError(err)
	s.Require().Len(therapists, 1)
	s.Equal("t1", therapists[0].ID)
}

func (s *GORMRepositorySuite) TestUpdateProfileKeepsUntouchedFields() {
	s.Require().NoError(s.repo.Create(s.ctx, &shared.Account{
		ID: "t1", Name: "Katty Houston", Email: "k@example.com", Role: common.RoleTherapist, Specialization: "Music",
	}))
	addr := "1 Main St"
	got, err := s.repo.UpdateProfile(s.ctx, "t1", ProfileChanges{
		Address:      &addr,
		Availability: map[string][]string{"monday": {"10:00"}},
	})
	s.Require().NoError(err)
	s.Equal("Music", got.Specialization)

	reloaded, err := s.repo.FindByID(s.ctx, "t1")
	s.Require().NoError(err)
	s.Equal(addr, reloaded.Address)
	s.Equal([]string{"10:00"}, reloaded.Availability["monday"])
}

func TestGORMRepositorySuite(t *testing.T) {
	suite.Run(t, new(GORMRepositorySuite))
}
