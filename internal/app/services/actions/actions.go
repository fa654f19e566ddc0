// Package actions appends coordinator action logs and runs the bulk
// review actions that produce them.
package actions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/policy/scopepolicy"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/htmlsanitize"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service records action logs.
type Service struct {
	repo    repo.Repository
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New returns a Service. m may be nil.
func New(r repo.Repository, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: r, logger: logger, metrics: m, now: func() time.Time { return time.Now().UTC() }}
}

// Entry is one action to record.
type Entry struct {
	CoordinatorID primitive.ObjectID
	DistrictID    primitive.ObjectID
	ActionType    string
	Description   string
	PatientID     *primitive.ObjectID
	Notes         string
}

// Record appends e and mirrors it to the log. Unknown coordinators or
// districts are ErrNotFound.
func (s *Service) Record(ctx context.Context, e Entry) (models.ActionLog, error) {
	l, err := s.appendEntry(ctx, e)
	if err != nil {
		return models.ActionLog{}, err
	}
	s.mirror(l)
	return l, nil
}

// appendEntry validates and stores e without logging it; callers inside a
// transaction mirror the entry once it has committed.
func (s *Service) appendEntry(ctx context.Context, e Entry) (models.ActionLog, error) {
	if !models.ValidActionType(e.ActionType) {
		return models.ActionLog{}, apperr.Invalid("action_type", "unknown action type")
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return models.ActionLog{}, apperr.Required("description")
	}
	l, err := s.repo.ActionLogs().Append(ctx, models.ActionLog{
		CoordinatorID: e.CoordinatorID,
		ActionType:    e.ActionType,
		Description:   desc,
		PatientID:     e.PatientID,
		DistrictID:    e.DistrictID,
		Timestamp:     s.now(),
		Status:        models.ActionStatusCompleted,
		Notes:         htmlsanitize.PlainText(e.Notes),
	})
	if err != nil {
		return models.ActionLog{}, err
	}
	return l, nil
}

func (s *Service) mirror(l models.ActionLog) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", "action"),
		zap.String("action_type", l.ActionType),
		zap.String("coordinator_id", l.CoordinatorID.Hex()),
		zap.String("district_id", l.DistrictID.Hex()),
	}
	if l.PatientID != nil {
		fields = append(fields, zap.String("patient_id", l.PatientID.Hex()))
	}
	s.logger.Info(l.Description, fields...)
}

// List returns the logs in scope, newest first, with the total count.
func (s *Service) List(ctx context.Context, scope repo.Scope, f repo.ActionLogFilter) ([]models.ActionLog, int64, error) {
	f.Scope = scope
	rows, err := s.repo.ActionLogs().List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.ActionLogs().Count(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ActingCoordinator returns the caller's coordinator record when it may run
// bulk actions: present, active and assigned to a district.
func (s *Service) ActingCoordinator(ctx context.Context, caller scopepolicy.Caller) (models.Coordinator, error) {
	res, err := scopepolicy.Resolve(ctx, caller, s.repo.Coordinators())
	if err != nil {
		return models.Coordinator{}, err
	}
	c := res.Coordinator
	if c == nil || !c.IsActive || c.DistrictID == nil {
		return models.Coordinator{}, apperr.ErrForbidden
	}
	return *c, nil
}

var errSkip = errors.New("skip")
