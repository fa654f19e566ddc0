package records

import (
	"context"
	"errors"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// District administration is reserved for the unrestricted scope.
func requireAll(scope repo.Scope) error {
	if !scope.All {
		return apperr.ErrForbidden
	}
	return nil
}

// ListDistricts returns the districts visible in scope, by name.
func (s *Service) ListDistricts(ctx context.Context, scope repo.Scope, search string) ([]models.District, error) {
	return s.repo.Districts().List(ctx, repo.DistrictFilter{Scope: scope, Search: normalize.QueryParam(search)})
}

// CreateDistrict adds a district. Names are unique ignoring case.
func (s *Service) CreateDistrict(ctx context.Context, scope repo.Scope, name string) (models.District, error) {
	if err := requireAll(scope); err != nil {
		return models.District{}, err
	}
	name = normalize.Name(name)
	if name == "" {
		return models.District{}, apperr.Required("name")
	}
	d, err := s.repo.Districts().Create(ctx, models.District{Name: name})
	if err != nil {
		return models.District{}, err
	}
	s.metrics.RecordWrite("district", "create")
	return d, nil
}

// RenameDistrict changes a district's name.
func (s *Service) RenameDistrict(ctx context.Context, scope repo.Scope, id primitive.ObjectID, name string) (models.District, error) {
	if err := requireAll(scope); err != nil {
		return models.District{}, err
	}
	name = normalize.Name(name)
	if name == "" {
		return models.District{}, apperr.Required("name")
	}
	if err := s.repo.Districts().Rename(ctx, id, name); err != nil {
		return models.District{}, err
	}
	s.metrics.RecordWrite("district", "update")
	return s.repo.Districts().GetByID(ctx, id)
}

// DeleteDistrict removes a district that no audit references.
func (s *Service) DeleteDistrict(ctx context.Context, scope repo.Scope, id primitive.ObjectID) error {
	if err := requireAll(scope); err != nil {
		return err
	}
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Districts().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.metrics.RecordWrite("district", "delete")
	return nil
}

// SeedResult counts the outcome of SeedDistricts.
type SeedResult struct {
	Created  []string
	Existing []string
}

// SeedDistricts creates every name that does not exist yet. Existing names
// are reported, not treated as errors.
func (s *Service) SeedDistricts(ctx context.Context, names []string) (SeedResult, error) {
	var res SeedResult
	for _, n := range names {
		n = normalize.Name(n)
		if n == "" {
			continue
		}
		_, err := s.repo.Districts().Create(ctx, models.District{Name: n})
		switch {
		case err == nil:
			res.Created = append(res.Created, n)
		case errors.Is(err, apperr.ErrDuplicateDistrict):
			res.Existing = append(res.Existing, n)
		default:
			return res, err
		}
	}
	s.logger.Info("districts seeded",
		zap.Int("created", len(res.Created)), zap.Int("existing", len(res.Existing)))
	return res, nil
}
