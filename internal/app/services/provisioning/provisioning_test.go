package provisioning_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T, r repo.Repository) *provisioning.Service {
	t.Helper()
	s := provisioning.New(r, zap.NewNop(), nil)
	s.BcryptCost = bcrypt.MinCost
	return s
}

func district(t *testing.T, r *memory.Repo, name string) *primitive.ObjectID {
	t.Helper()
	d, err := r.Districts().Create(context.Background(), models.District{Name: name})
	require.NoError(t, err)
	return &d.ID
}

func TestProvision_CreatesIdentityAndCoordinator(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)
	alpha := district(t, r, "Alpha")

	res, err := s.Provision(ctx, provisioning.Input{
		Name: "  Asha   Rao ", EmployeeID: "EMP-1", DistrictID: alpha,
		ContactNumber: "9876543210", Email: "Asha@Example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, "emp_1", res.User.LoginName)
	assert.Equal(t, "asha@example.org", res.User.EmailValue())
	assert.True(t, res.User.IsActive)
	assert.Equal(t, "Asha Rao", res.Coordinator.Name)
	assert.Equal(t, res.User.ID, res.Coordinator.UserID)
	assert.NotEmpty(t, res.Credential)

	stored, err := r.Users().GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Groups, models.CoordinatorsGroup)
	assert.NotEqual(t, res.Credential, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(res.Credential)))

	g, err := r.Groups().GetByName(ctx, models.CoordinatorsGroup)
	require.NoError(t, err)
	assert.ElementsMatch(t, models.CoordinatorPermissions, g.Permissions)
}

func TestProvision_LoginNameSuffixes(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	first, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "EMP-1", Email: "a@x.org"})
	require.NoError(t, err)
	second, err := s.Provision(ctx, provisioning.Input{Name: "B", EmployeeID: "emp 1", Email: "b@x.org"})
	require.NoError(t, err)
	third, err := s.Provision(ctx, provisioning.Input{Name: "C", EmployeeID: "Emp  1", Email: "c@x.org"})
	require.NoError(t, err)

	assert.Equal(t, "emp_1", first.User.LoginName)
	assert.Equal(t, "emp_1_1", second.User.LoginName)
	assert.Equal(t, "emp_1_2", third.User.LoginName)
}

func TestProvision_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	_, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "same@x.org"})
	require.NoError(t, err)

	_, err = s.Provision(ctx, provisioning.Input{Name: "B", EmployeeID: "E2", Email: " SAME@x.org "})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	n, _ := r.Users().Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestProvision_Validation(t *testing.T) {
	s := newService(t, memory.New())

	tests := []struct {
		name  string
		in    provisioning.Input
		field string
	}{
		{"missing name", provisioning.Input{EmployeeID: "E", Email: "a@x.org"}, "name"},
		{"missing employee id", provisioning.Input{Name: "A", Email: "a@x.org"}, "employee_id"},
		{"separator-only employee id", provisioning.Input{Name: "A", EmployeeID: "--", Email: "a@x.org"}, "employee_id"},
		{"missing email", provisioning.Input{Name: "A", EmployeeID: "E"}, "email"},
		{"bad email", provisioning.Input{Name: "A", EmployeeID: "E", Email: "nope"}, "email"},
		{"bad contact", provisioning.Input{Name: "A", EmployeeID: "E", Email: "a@x.org", ContactNumber: "98-76"}, "contact_number"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Provision(context.Background(), tc.in)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestProvision_UnknownDistrict(t *testing.T) {
	s := newService(t, memory.New())
	missing := primitive.NewObjectID()
	_, err := s.Provision(context.Background(), provisioning.Input{Name: "A", EmployeeID: "E", Email: "a@x.org", DistrictID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// failingCoordinators makes coordinator creation fail after the identity
// has been written.
type failingCoordinators struct{ repo.CoordinatorStore }

func (failingCoordinators) Create(context.Context, models.Coordinator) (models.Coordinator, error) {
	return models.Coordinator{}, errors.New("disk full")
}

type coordFailRepo struct{ *memory.Repo }

func (r coordFailRepo) Coordinators() repo.CoordinatorStore {
	return failingCoordinators{r.Repo.Coordinators()}
}

func TestProvision_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := newService(t, coordFailRepo{mem})

	_, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	require.Error(t, err)

	n, err := mem.Users().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "identity must not survive a failed provisioning")
}

// racingUsers reports the login name as free but fails the first n creates
// as if another writer won the name at commit.
type racingUsers struct {
	repo.UserStore
	failures *int
}

func (u racingUsers) Create(ctx context.Context, m models.User) (models.User, error) {
	if *u.failures > 0 {
		*u.failures--
		return models.User{}, apperr.ErrDuplicateIdentity
	}
	return u.UserStore.Create(ctx, m)
}

type racingRepo struct {
	*memory.Repo
	failures *int
}

func (r racingRepo) Users() repo.UserStore {
	return racingUsers{UserStore: r.Repo.Users(), failures: r.failures}
}

func TestProvision_RetriesDuplicateIdentity(t *testing.T) {
	ctx := context.Background()

	failures := 2
	s := newService(t, racingRepo{Repo: memory.New(), failures: &failures})
	res, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	require.NoError(t, err)
	assert.Equal(t, "e1", res.User.LoginName)

	failures = 10
	s = newService(t, racingRepo{Repo: memory.New(), failures: &failures})
	_, err = s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateIdentity)
	assert.Equal(t, 5, 10-failures, "gives up after five attempts")
}

func TestUpdateProfile_PropagatesToIdentity(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)
	beta := district(t, r, "Beta")

	res, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	require.NoError(t, err)
	_, err = s.Provision(ctx, provisioning.Input{Name: "B", EmployeeID: "E2", Email: "b@x.org"})
	require.NoError(t, err)

	c, err := s.UpdateProfile(ctx, res.Coordinator.ID, provisioning.ProfileInput{
		Name: "A Renamed", EmployeeID: "E1", DistrictID: beta, Email: "new@x.org", IsActive: false,
	})
	require.NoError(t, err)
	assert.Equal(t, beta, c.DistrictID)
	assert.False(t, c.IsActive)

	u, err := r.Users().GetByID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@x.org", u.EmailValue())
	assert.False(t, u.IsActive)
	assert.Equal(t, "A Renamed", u.FullName)
	assert.Equal(t, res.User.PasswordHash, u.PasswordHash)

	_, err = s.UpdateProfile(ctx, res.Coordinator.ID, provisioning.ProfileInput{
		Name: "A", EmployeeID: "E1", Email: "b@x.org", IsActive: true,
	})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	again, err := r.Coordinators().GetByID(ctx, res.Coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@x.org", again.Email, "failed update leaves the row untouched")
}

func TestDelete_RemovesIdentity(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	res, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	require.NoError(t, err)

	gone, err := s.Delete(ctx, res.Coordinator.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Coordinator.ID, gone.ID)

	_, err = r.Users().GetByID(ctx, res.User.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.Coordinators().GetByID(ctx, res.Coordinator.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.Delete(ctx, res.Coordinator.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResetCredential(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	res, err := s.Provision(ctx, provisioning.Input{Name: "A", EmployeeID: "E1", Email: "a@x.org"})
	require.NoError(t, err)

	clear, _, err := s.ResetCredential(ctx, res.Coordinator.ID)
	require.NoError(t, err)
	assert.NotEqual(t, res.Credential, clear)

	u, _ := r.Users().GetByID(ctx, res.User.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(clear)))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(res.Credential)))
}
