package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/normalize"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen applies to passwords chosen by an administrator.
const minPasswordLen = 8

// UserInput describes a directly managed identity (superusers and staff).
// An empty Password on create generates one; on update it keeps the
// current hash.
type UserInput struct {
	LoginName   string
	FullName    string
	Email       string
	Password    string
	IsSuperuser bool
	IsStaff     bool
	IsActive    bool
}

func (in UserInput) clean() (UserInput, error) {
	in.LoginName = normalize.LoginName(in.LoginName)
	in.FullName = normalize.Name(in.FullName)
	in.Email = normalize.Email(in.Email)
	switch {
	case strings.Trim(in.LoginName, "_") == "":
		return in, apperr.Required("login_name")
	case in.Email != "" && !validEmail(in.Email):
		return in, apperr.Invalid("email", "is not a valid address")
	case in.Password != "" && len(in.Password) < minPasswordLen:
		return in, apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	}
	return in, nil
}

func emailPtr(e string) *string {
	if e == "" {
		return nil
	}
	return &e
}

// CreateUser adds an identity. The returned string is the generated
// credential when in.Password was empty, otherwise "".
func (s *Service) CreateUser(ctx context.Context, in UserInput) (models.User, string, error) {
	in, err := in.clean()
	if err != nil {
		return models.User{}, "", err
	}

	generated := ""
	var hash string
	if in.Password == "" {
		generated, hash, err = NewCredential(s.BcryptCost)
	} else {
		var h []byte
		h, err = bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
		hash = string(h)
	}
	if err != nil {
		return models.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	var u models.User
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		if in.Email != "" {
			taken, err := s.repo.Users().EmailExists(ctx, in.Email, nil)
			if err != nil {
				return err
			}
			if taken {
				return apperr.ErrDuplicateEmail
			}
		}
		taken, err := s.repo.Users().LoginNameExists(ctx, in.LoginName)
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrDuplicateIdentity
		}
		u, err = s.repo.Users().Create(ctx, models.User{
			LoginName:    in.LoginName,
			Email:        emailPtr(in.Email),
			FullName:     in.FullName,
			PasswordHash: hash,
			IsSuperuser:  in.IsSuperuser,
			IsStaff:      in.IsStaff || in.IsSuperuser,
			IsActive:     in.IsActive,
		})
		return err
	})
	if err != nil {
		return models.User{}, "", err
	}
	return u, generated, nil
}

// UpdateUser edits an identity. Coordinator-owned identities are edited
// through UpdateProfile and are refused here.
func (s *Service) UpdateUser(ctx context.Context, id primitive.ObjectID, in UserInput) (models.User, error) {
	in, err := in.clean()
	if err != nil {
		return models.User{}, err
	}

	var u models.User
	err = s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.repo.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		u = cur
		if _, err := s.repo.Coordinators().GetByUserID(ctx, id); err == nil {
			return apperr.Invalid("user", "belongs to a coordinator; edit the coordinator instead")
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		if in.Email != "" {
			taken, err := s.repo.Users().EmailExists(ctx, in.Email, &id)
			if err != nil {
				return err
			}
			if taken {
				return apperr.ErrDuplicateEmail
			}
		}

		u.LoginName = in.LoginName
		u.FullName = in.FullName
		u.Email = emailPtr(in.Email)
		u.IsSuperuser = in.IsSuperuser
		u.IsStaff = in.IsStaff || in.IsSuperuser
		u.IsActive = in.IsActive
		if err := s.repo.Users().Update(ctx, u); err != nil {
			return err
		}
		if in.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			return s.repo.Users().SetPasswordHash(ctx, id, string(h))
		}
		return nil
	})
	return u, err
}

// DeleteUser removes an identity that no coordinator owns.
func (s *Service) DeleteUser(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	err := s.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.repo.Coordinators().GetByUserID(ctx, id); err == nil {
			return apperr.ErrProtected
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		return s.repo.Users().Delete(ctx, id)
	})
	return u, err
}

// ListUsers returns identities matching f.
func (s *Service) ListUsers(ctx context.Context, f repo.UserFilter) ([]models.User, error) {
	return s.repo.Users().List(ctx, f)
}

// EnsureSuperuser creates the bootstrap superuser when no identity with
// that login exists yet. created is false when it was already present.
func (s *Service) EnsureSuperuser(ctx context.Context, login, email, password string) (created bool, err error) {
	login = normalize.LoginName(login)
	if login == "" || password == "" {
		return false, nil
	}
	if _, err := s.repo.Users().GetByLoginName(ctx, login); err == nil {
		return false, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}

	u, _, err := s.CreateUser(ctx, UserInput{
		LoginName:   login,
		FullName:    "Administrator",
		Email:       email,
		Password:    password,
		IsSuperuser: true,
		IsActive:    true,
	})
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap superuser created", zap.String("login_name", u.LoginName))
	return true, nil
}

// ChangePassword replaces the user's own password after checking the
// current one. A wrong current password is a validation error on
// current_password.
func (s *Service) ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error {
	switch {
	case current == "":
		return apperr.Required("current_password")
	case len(next) < minPasswordLen:
		return apperr.Invalid("new_password", fmt.Sprintf("must be at least %d characters", minPasswordLen))
	case next == current:
		return apperr.Invalid("new_password", "must differ from the current password")
	}

	u, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Invalid("current_password", "is incorrect")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(next), s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.Users().SetPasswordHash(ctx, id, string(h)); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("user_id", id.Hex()))
	return nil
}
