// Package mongostore assembles the Mongo-backed entity stores into a
// repo.Repository.
package mongostore

import (
	"context"

	actionlogstore "github.com/dalemusser/fieldaudit/internal/app/store/actionlogs"
	coordinatorstore "github.com/dalemusser/fieldaudit/internal/app/store/coordinators"
	districtstore "github.com/dalemusser/fieldaudit/internal/app/store/districts"
	fieldauditstore "github.com/dalemusser/fieldaudit/internal/app/store/fieldaudits"
	groupstore "github.com/dalemusser/fieldaudit/internal/app/store/groups"
	patientstore "github.com/dalemusser/fieldaudit/internal/app/store/patients"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	userstore "github.com/dalemusser/fieldaudit/internal/app/store/users"
	"github.com/dalemusser/fieldaudit/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Repo is the production repository.
type Repo struct {
	db     *mongo.Database
	logger *zap.Logger

	districts    *districtstore.Store
	coordinators *coordinatorstore.Store
	users        *userstore.Store
	groups       *groupstore.Store
	audits       *fieldauditstore.Store
	patients     *patientstore.Store
	actionLogs   *actionlogstore.Store
}

var _ repo.Repository = (*Repo)(nil)

// New wires every store against db.
func New(db *mongo.Database, logger *zap.Logger) *Repo {
	return &Repo{
		db:           db,
		logger:       logger,
		districts:    districtstore.New(db),
		coordinators: coordinatorstore.New(db),
		users:        userstore.New(db),
		groups:       groupstore.New(db),
		audits:       fieldauditstore.New(db),
		patients:     patientstore.New(db),
		actionLogs:   actionlogstore.New(db),
	}
}

func (r *Repo) Districts() repo.DistrictStore       { return r.districts }
func (r *Repo) Coordinators() repo.CoordinatorStore { return r.coordinators }
func (r *Repo) Users() repo.UserStore               { return r.users }
func (r *Repo) Groups() repo.GroupStore             { return r.groups }
func (r *Repo) Audits() repo.AuditStore             { return r.audits }
func (r *Repo) Patients() repo.PatientStore         { return r.patients }
func (r *Repo) ActionLogs() repo.ActionLogStore     { return r.actionLogs }

// WithTransaction runs fn in a Mongo transaction. A call made with a context
// that already carries a session joins it.
func (r *Repo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}
	return txn.Run(ctx, r.db, r.logger, fn)
}
