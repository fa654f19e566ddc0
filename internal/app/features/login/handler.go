// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/formutil"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"github.com/dalemusser/fieldaudit/internal/app/system/ratelimit"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/fieldaudit/internal/app/system/viewdata"
	"github.com/dalemusser/fieldaudit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users        repo.UserStore
	Coordinators repo.CoordinatorStore
	Log          *zap.Logger
	SessionMgr   *auth.SessionManager
	ErrLog       *errorsfeature.ErrorLogger
	AuditLog     *auditlog.Logger
	Limiter      *ratelimit.LoginLimiter
	Metrics      *metrics.Metrics
}

func NewHandler(
	r repo.Repository,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Handler {
	if limiter == nil {
		limiter = ratelimit.DefaultLoginLimiter()
	}
	return &Handler{
		Users:        r.Users(),
		Coordinators: r.Coordinators(),
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		AuditLog:     audit,
		Limiter:      limiter,
		Metrics:      m,
	}
}

type loginRequest struct {
	LoginName string `json:"login_name"`
	Password  string `json:"password"`
}

// UserView is the signed-in identity returned to the client.
type UserView struct {
	ID        string `json:"id"`
	LoginName string `json:"login_name"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
}

func viewOf(u models.User) UserView {
	return UserView{ID: u.ID.Hex(), LoginName: u.LoginName, FullName: u.FullName, Role: u.Role()}
}

// invalidCredentials is the same answer for an unknown name and a wrong
// password, so the endpoint does not reveal which login names exist.
func invalidCredentials(w http.ResponseWriter) {
	errorsfeature.Write(w, http.StatusUnauthorized, "invalid_credentials", "login name or password is incorrect", "")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := formutil.DecodeJSON(w, r, &in); err != nil {
		h.ErrLog.Fail(w, r, "decode login", err)
		return
	}
	loginName := strings.TrimSpace(in.LoginName)
	if loginName == "" {
		h.ErrLog.Fail(w, r, "login", apperr.Required("login_name"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if ok, reason := h.Limiter.Check(r, loginName); !ok {
		h.AuditLog.LoginRateLimited(ctx, r, loginName)
		h.Metrics.Login("rate_limited")
		w.Header().Set("Retry-After", "60")
		errorsfeature.Write(w, http.StatusTooManyRequests, "rate_limited", reason, "")
		return
	}

	u, err := h.Users.GetByLoginName(ctx, loginName)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, loginName)
		h.Metrics.Login("not_found")
		invalidCredentials(w)
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user", err, "A server error occurred.")
		return
	}

	// Credential before status: a disabled account is only revealed to
	// its password holder.
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, loginName)
		h.Metrics.Login("wrong_password")
		invalidCredentials(w)
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, loginName)
		h.Metrics.Login("disabled")
		errorsfeature.Write(w, http.StatusForbidden, "account_disabled",
			"Your account is currently disabled. Please contact an administrator.", "")
		return
	}

	h.signIn(ctx, w, r, u, "password")
}

// signIn writes the session and records the success. Shared with the
// Google callback through SignIn.
func (h *Handler) signIn(ctx context.Context, w http.ResponseWriter, r *http.Request, u models.User, method string) {
	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:        u.ID.Hex(),
		LoginName: u.LoginName,
		Name:      u.FullName,
		Role:      u.Role(),
	}); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.")
		return
	}

	if err := h.Users.TouchLastLogin(ctx, u.ID, time.Now().UTC()); err != nil {
		h.Log.Warn("touch last login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	h.Limiter.ResetLogin(ctx, u.LoginName)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, h.districtOf(ctx, u.ID), method, u.LoginName)
	h.Metrics.Login("success")

	viewdata.OK(w, map[string]UserView{"user": viewOf(u)})
}

// SignIn completes a sign-in already authenticated elsewhere.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request, u models.User, method string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	h.signIn(ctx, w, r, u, method)
}

func (h *Handler) districtOf(ctx context.Context, userID primitive.ObjectID) *primitive.ObjectID {
	c, err := h.Coordinators.GetByUserID(ctx, userID)
	if err != nil {
		return nil
	}
	return c.DistrictID
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login/session                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeSession returns the signed-in identity, or 401.
func (h *Handler) ServeSession(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		errorsfeature.RenderUnauthorized(w, r)
		return
	}
	viewdata.OK(w, map[string]UserView{"user": {
		ID:        su.ID,
		LoginName: su.LoginName,
		FullName:  su.Name,
		Role:      su.Role,
	}})
}
