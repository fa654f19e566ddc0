package provisioning_test

import (
	"context"
	"testing"

	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/store/memory"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	u, generated, err := s.CreateUser(ctx, provisioning.UserInput{
		LoginName: "Field Auditor", FullName: "Ravi", Email: "ravi@x.org", IsStaff: true, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "field_auditor", u.LoginName)
	assert.NotEmpty(t, generated)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(generated)))

	_, generated, err = s.CreateUser(ctx, provisioning.UserInput{LoginName: "admin", Password: "longenough", IsSuperuser: true, IsActive: true})
	require.NoError(t, err)
	assert.Empty(t, generated)

	_, _, err = s.CreateUser(ctx, provisioning.UserInput{LoginName: "ADMIN", Password: "longenough"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateIdentity)

	_, _, err = s.CreateUser(ctx, provisioning.UserInput{LoginName: "x", Email: "RAVI@x.org"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	_, _, err = s.CreateUser(ctx, provisioning.UserInput{LoginName: "y", Password: "short"})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "password", ve.Field)

	users, err := s.ListUsers(ctx, repo.UserFilter{Search: "fie"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "field_auditor", users[0].LoginName)
}

func TestUpdateAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	u, _, err := s.CreateUser(ctx, provisioning.UserInput{LoginName: "staff", Password: "password1", IsStaff: true, IsActive: true})
	require.NoError(t, err)

	upd, err := s.UpdateUser(ctx, u.ID, provisioning.UserInput{LoginName: "staff", FullName: "S", Password: "password2", IsActive: false})
	require.NoError(t, err)
	assert.False(t, upd.IsActive)

	stored, _ := r.Users().GetByID(ctx, u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password2")))

	coord, err := s.Provision(ctx, provisioning.Input{Name: "C", EmployeeID: "E1", Email: "c@x.org"})
	require.NoError(t, err)

	_, err = s.DeleteUser(ctx, coord.User.ID)
	assert.ErrorIs(t, err, apperr.ErrProtected, "coordinator identities go with their coordinator")
	_, err = s.UpdateUser(ctx, coord.User.ID, provisioning.UserInput{LoginName: "e1"})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = s.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	_, err = r.Users().GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestEnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	created, err := s.EnsureSuperuser(ctx, "root", "root@x.org", "changeme123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureSuperuser(ctx, "root", "root@x.org", "changeme123")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = s.EnsureSuperuser(ctx, "", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := r.Users().GetByLoginName(ctx, "root")
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	r := memory.New()
	s := newService(t, r)

	u, _, err := s.CreateUser(ctx, provisioning.UserInput{LoginName: "auditor", Password: "first-pass", IsStaff: true, IsActive: true})
	require.NoError(t, err)

	fieldOf := func(err error) string {
		var ve *apperr.ValidationError
		require.ErrorAs(t, err, &ve)
		return ve.Field
	}
	assert.Equal(t, "current_password", fieldOf(s.ChangePassword(ctx, u.ID, "", "second-pass")))
	assert.Equal(t, "new_password", fieldOf(s.ChangePassword(ctx, u.ID, "first-pass", "short")))
	assert.Equal(t, "new_password", fieldOf(s.ChangePassword(ctx, u.ID, "first-pass", "first-pass")))
	assert.Equal(t, "current_password", fieldOf(s.ChangePassword(ctx, u.ID, "wrong-pass", "second-pass")))

	require.NoError(t, s.ChangePassword(ctx, u.ID, "first-pass", "second-pass"))
	got, err := r.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("second-pass")))

	assert.ErrorIs(t, s.ChangePassword(ctx, primitive.NewObjectID(), "second-pass", "third-pass"), apperr.ErrNotFound)
}
