// Package memory is an in-process implementation of repo.Repository.
//
// It enforces the same uniqueness, cascade and protect rules as the Mongo
// stores and gives WithTransaction snapshot/rollback semantics. Transactions
// are serialized; plain writes made by other goroutines while a transaction
// is open are lost if that transaction rolls back.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

type tables struct {
	districts    map[primitive.ObjectID]models.District
	coordinators map[primitive.ObjectID]models.Coordinator
	users        map[primitive.ObjectID]models.User
	groups       map[string]models.Group
	audits       map[primitive.ObjectID]models.FieldAudit
	patients     map[primitive.ObjectID]models.Patient
	logs         map[primitive.ObjectID]models.ActionLog
}

func newTables() tables {
	return tables{
		districts:    map[primitive.ObjectID]models.District{},
		coordinators: map[primitive.ObjectID]models.Coordinator{},
		users:        map[primitive.ObjectID]models.User{},
		groups:       map[string]models.Group{},
		audits:       map[primitive.ObjectID]models.FieldAudit{},
		patients:     map[primitive.ObjectID]models.Patient{},
		logs:         map[primitive.ObjectID]models.ActionLog{},
	}
}

func (t tables) clone() tables {
	return tables{
		districts:    maps.Clone(t.districts),
		coordinators: maps.Clone(t.coordinators),
		users:        maps.Clone(t.users),
		groups:       maps.Clone(t.groups),
		audits:       maps.Clone(t.audits),
		patients:     maps.Clone(t.patients),
		logs:         maps.Clone(t.logs),
	}
}

// Repo is the in-memory repository. The zero value is not usable; call New.
type Repo struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables
}

var _ repo.Repository = (*Repo)(nil)

// New returns an empty repository.
func New() *Repo {
	return &Repo{t: newTables()}
}

func (r *Repo) Districts() repo.DistrictStore       { return districtStore{r} }
func (r *Repo) Coordinators() repo.CoordinatorStore { return coordinatorStore{r} }
func (r *Repo) Users() repo.UserStore               { return userStore{r} }
func (r *Repo) Groups() repo.GroupStore             { return groupStore{r} }
func (r *Repo) Audits() repo.AuditStore             { return auditStore{r} }
func (r *Repo) Patients() repo.PatientStore         { return patientStore{r} }
func (r *Repo) ActionLogs() repo.ActionLogStore     { return actionLogStore{r} }

// WithTransaction snapshots every table, runs fn, and restores the snapshot
// if fn fails. A nested call joins the outer transaction.
func (r *Repo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	snap := r.t.clone()
	r.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		r.mu.Lock()
		r.t = snap
		r.mu.Unlock()
		return err
	}
	return nil
}

// page applies offset and limit to an already sorted slice.
func page[T any](rows []T, offset, limit int64) []T {
	if offset > 0 {
		if offset >= int64(len(rows)) {
			return nil
		}
		rows = rows[offset:]
	}
	if limit > 0 && int64(len(rows)) > limit {
		rows = rows[:limit]
	}
	return rows
}

func hasPrefixFold(value, search string) bool {
	if search == "" {
		return true
	}
	v, s := text.Fold(value), text.Fold(search)
	return len(v) >= len(s) && v[:len(s)] == s
}

func sortedValues[K comparable, V any](m map[K]V, less func(a, b V) bool) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
