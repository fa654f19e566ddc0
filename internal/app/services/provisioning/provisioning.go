// Package provisioning creates, updates and removes coordinators together
// with the login identity each one owns.
package provisioning

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// maxAttempts bounds the retries after a login name is taken at commit.
	maxAttempts = 5
	// maxSuffix bounds the search for a free login name.
	maxSuffix = 10000
	// credentialBytes is the entropy of generated credentials.
	credentialBytes = 16
)

// Service runs the provisioning workflow against a repository.
type Service struct {
	repo    repo.Repository
	logger  *zap.Logger
	metrics *metrics.Metrics

	// BcryptCost is the hashing cost for credentials; tests lower it.
	BcryptCost int
}

// New returns a Service. m may be nil.
func New(r repo.Repository, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{repo: r, logger: logger, metrics: m, BcryptCost: 12}
}

// Input is what an administrator supplies for a new coordinator.
type Input struct {
	Name          string
	EmployeeID    string
	DistrictID    *primitive.ObjectID
	ContactNumber string
	Email         string
}

// Result carries the created records and the clear credential, which is
// returned exactly once and never stored.
type Result struct {
	Coordinator models.Coordinator
	User        models.User
	Credential  string
}

func (in Input) clean() (Input, error) {
	in.Name = normalize.Name(in.Name)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = normalize.Email(in.Email)

	switch {
	case in.Name == "":
		return in, apperr.Required("name")
	case in.EmployeeID == "":
		return in, apperr.Required("employee_id")
	case strings.Trim(normalize.LoginName(in.EmployeeID), "_") == "":
		return in, apperr.Invalid("employee_id", "must contain letters or digits")
	case in.Email == "":
		return in, apperr.Required("email")
	case !validEmail(in.Email):
		return in, apperr.Invalid("email", "is not a valid address")
	case in.ContactNumber != "" && !normalize.Digits(in.ContactNumber):
		return in, apperr.Invalid("contact_number", "digits only")
	}
	return in, nil
}

func validEmail(s string) bool {
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}

// NewCredential returns a random URL-safe credential and its bcrypt hash.
func NewCredential(cost int) (clear, hash string, err error) {
	key := securecookie.GenerateRandomKey(credentialBytes)
	if key == nil {
		return "", "", errors.New("generate credential: random source failed")
	}
	clear = base64.RawURLEncoding.EncodeToString(key)
	h, err := bcrypt.GenerateFromPassword([]byte(clear), cost)
	if err != nil {
		return "", "", fmt.Errorf("hash credential: %w", err)
	}
	return clear, string(h), nil
}

// Provision creates the identity and coordinator in one transaction. A login
// name lost to a concurrent writer at commit is retried with a fresh name.
func (s *Service) Provision(ctx context.Context, in Input) (Result, error) {
	in, err := in.clean()
	if err != nil {
		return Result{}, err
	}
	if in.DistrictID != nil {
		if _, err := s.repo.Districts().GetByID(ctx, *in.DistrictID); err != nil {
			return Result{}, err
		}
	}

	clear, hash, err := NewCredential(s.BcryptCost)
	if err != nil {
		return Result{}, err
	}

	for attempt := 1; ; attempt++ {
		res, err := s.provisionOnce(ctx, in, hash)
		if err == nil {
			res.Credential = clear
			s.metrics.CoordinatorProvisioned()
			s.logger.Info("coordinator provisioned",
				zap.String("coordinator_id", res.Coordinator.ID.Hex()),
				zap.String("login_name", res.User.LoginName),
				zap.Int("attempt", attempt))
			return res, nil
		}
		if !errors.Is(err, apperr.ErrDuplicateIdentity) || attempt >= maxAttempts {
			return Result{}, err
		}
		s.logger.Warn("login name taken at commit; retrying",
			zap.String("employee_id", in.EmployeeID), zap.Int("attempt", attempt))
	}
}

func (s *Service) provisionOnce(ctx context.Context, in Input, hash string) (Result, error) {
	var res Result
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		taken, err := s.repo.Users().EmailExists(ctx, in.Email, nil)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrDuplicateEmail
		}

		login, err := s.freeLoginName(ctx, normalize.LoginName(in.EmployeeID))
		if err != nil {
			return err
		}

		if _, err := s.repo.Groups().Ensure(ctx, models.CoordinatorsGroup, models.CoordinatorPermissions); err != nil {
			return fmt.Errorf("ensure group: %w", err)
		}

		email := in.Email
		u, err := s.repo.Users().Create(ctx, models.User{
			LoginName:    login,
			Email:        &email,
			FullName:     in.Name,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		if err := s.repo.Users().AddToGroup(ctx, u.ID, models.CoordinatorsGroup); err != nil {
			return fmt.Errorf("add to group: %w", err)
		}
		u.Groups = append(u.Groups, models.CoordinatorsGroup)

		c, err := s.repo.Coordinators().Create(ctx, models.Coordinator{
			UserID:        u.ID,
			Name:          in.Name,
			EmployeeID:    in.EmployeeID,
			DistrictID:    in.DistrictID,
			ContactNumber: in.ContactNumber,
			Email:         in.Email,
			IsActive:      true,
		})
		if err != nil {
			return err
		}
		res = Result{Coordinator: c, User: u}
		return nil
	})
	return res, err
}

// freeLoginName returns base, or base_1, base_2, ... whichever is free first.
func (s *Service) freeLoginName(ctx context.Context, base string) (string, error) {
	for i := 0; i < maxSuffix; i++ {
		candidate := base
		if i > 0 {
			candidate = base + "_" + strconv.Itoa(i)
		}
		taken, err := s.repo.Users().LoginNameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free login name for %q: %w", base, apperr.ErrDuplicateIdentity)
}

// ProfileInput is the editable part of a coordinator.
type ProfileInput struct {
	Name          string
	EmployeeID    string
	DistrictID    *primitive.ObjectID
	ContactNumber string
	Email         string
	IsActive      bool
}

// UpdateProfile edits a coordinator and carries email, name and active state
// over to its identity in the same transaction.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (models.Coordinator, error) {
	cleaned, err := Input{
		Name: in.Name, EmployeeID: in.EmployeeID, DistrictID: in.DistrictID,
		ContactNumber: in.ContactNumber, Email: in.Email,
	}.clean()
	if err != nil {
		return models.Coordinator{}, err
	}

	var out models.Coordinator
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.Coordinators().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cleaned.DistrictID != nil {
			if _, err := s.repo.Districts().GetByID(ctx, *cleaned.DistrictID); err != nil {
				return err
			}
		}
		taken, err := s.repo.Users().EmailExists(ctx, cleaned.Email, &c.UserID)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrDuplicateEmail
		}

		c.Name = cleaned.Name
		c.EmployeeID = cleaned.EmployeeID
		c.DistrictID = cleaned.DistrictID
		c.ContactNumber = cleaned.ContactNumber
		c.Email = cleaned.Email
		c.IsActive = in.IsActive
		if err := s.repo.Coordinators().Update(ctx, c); err != nil {
			return err
		}

		u, err := s.repo.Users().GetByID(ctx, c.UserID)
		if err != nil {
			return fmt.Errorf("load identity: %w", err)
		}
		email := cleaned.Email
		u.Email = &email
		u.FullName = cleaned.Name
		u.IsActive = in.IsActive
		if err := s.repo.Users().Update(ctx, u); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

// Delete removes the coordinator and then its identity in one transaction.
// The removed coordinator is returned for audit logging.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (models.Coordinator, error) {
	var gone models.Coordinator
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.Coordinators().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repo.Coordinators().Delete(ctx, id); err != nil {
			return err
		}
		if err := s.repo.Users().Delete(ctx, c.UserID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("delete identity: %w", err)
		}
		gone = c
		return nil
	})
	return gone, err
}

// ResetCredential replaces the coordinator's credential and returns the new
// clear value.
func (s *Service) ResetCredential(ctx context.Context, id primitive.ObjectID) (string, models.Coordinator, error) {
	c, err := s.repo.Coordinators().GetByID(ctx, id)
	if err != nil {
		return "", models.Coordinator{}, err
	}
	clear, hash, err := NewCredential(s.BcryptCost)
	if err != nil {
		return "", models.Coordinator{}, err
	}
	if err := s.repo.Users().SetPasswordHash(ctx, c.UserID, hash); err != nil {
		return "", models.Coordinator{}, err
	}
	return clear, c, nil
}
