package records_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistrictAdmin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	d, err := f.svc.CreateDistrict(ctx, repo.AllRows(), "  North   Zone ")
	require.NoError(t, err)
	assert.Equal(t, "North Zone", d.Name)

	_, err = f.svc.CreateDistrict(ctx, repo.AllRows(), "north zone")
	assert.ErrorIs(t, err, apperr.ErrDuplicateDistrict)

	_, err = f.svc.CreateDistrict(ctx, repo.InDistrict(f.alpha.ID), "South")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	d, err = f.svc.RenameDistrict(ctx, repo.AllRows(), d.ID, "North")
	require.NoError(t, err)
	assert.Equal(t, "North", d.Name)

	_, err = f.svc.RenameDistrict(ctx, repo.AllRows(), d.ID, "ALPHA")
	assert.ErrorIs(t, err, apperr.ErrDuplicateDistrict)

	require.NoError(t, f.svc.DeleteDistrict(ctx, repo.AllRows(), d.ID))
}

func TestDeleteDistrict_ProtectedWhileAudited(t *testing.T) {
	f := newFixture(t)
	f.audit(t, "Alpha")
	err := f.svc.DeleteDistrict(context.Background(), repo.AllRows(), f.alpha.ID)
	assert.ErrorIs(t, err, apperr.ErrProtected)
}

// brokenDeleteRepo completes a district delete and then reports a failure,
// as a dropped connection before commit would.
type brokenDeleteRepo struct{ *memory.Repo }

func (r brokenDeleteRepo) Districts() repo.DistrictStore {
	return brokenDelete{r.Repo.Districts()}
}

type brokenDelete struct{ repo.DistrictStore }

func (d brokenDelete) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := d.DistrictStore.Delete(ctx, id); err != nil {
		return err
	}
	return errors.New("connection reset")
}

func TestDeleteDistrict_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c, err := f.repo.Coordinators().Create(ctx, models.Coordinator{
		UserID:     primitive.NewObjectID(),
		Name:       "Kiran",
		EmployeeID: "E-1",
		DistrictID: &f.alpha.ID,
		IsActive:   true,
	})
	require.NoError(t, err)

	svc := records.New(brokenDeleteRepo{f.repo}, blobstore.NewMemory(), zap.NewNop(), nil)
	require.Error(t, svc.DeleteDistrict(ctx, repo.AllRows(), f.alpha.ID))

	_, err = f.repo.Districts().GetByID(ctx, f.alpha.ID)
	assert.NoError(t, err, "district survives a failed delete")
	got, err := f.repo.Coordinators().GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DistrictID, "coordinator keeps its district")
	assert.Equal(t, f.alpha.ID, *got.DistrictID)
}

func TestListDistricts_Scoped(t *testing.T) {
	f := newFixture(t)
	all, err := f.svc.ListDistricts(context.Background(), repo.AllRows(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListDistricts(context.Background(), repo.InDistrict(f.beta.ID), "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Beta", mine[0].Name)
}

func TestSeedDistricts(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.SeedDistricts(context.Background(), []string{"Gamma", "alpha", "", "Delta"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Gamma", "Delta"}, res.Created)
	assert.Equal(t, []string{"alpha"}, res.Existing)
}
