// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	actionlogsfeature "github.com/dalemusser/fieldaudit/internal/app/features/actionlogs"
	auditsfeature "github.com/dalemusser/fieldaudit/internal/app/features/audits"
	authgooglefeature "github.com/dalemusser/fieldaudit/internal/app/features/authgoogle"
	coordinatorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/coordinators"
	districtsfeature "github.com/dalemusser/fieldaudit/internal/app/features/districts"
	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	healthfeature "github.com/dalemusser/fieldaudit/internal/app/features/health"
	hospitalsfeature "github.com/dalemusser/fieldaudit/internal/app/features/hospitals"
	loginfeature "github.com/dalemusser/fieldaudit/internal/app/features/login"
	logoutfeature "github.com/dalemusser/fieldaudit/internal/app/features/logout"
	patientsfeature "github.com/dalemusser/fieldaudit/internal/app/features/patients"
	profilefeature "github.com/dalemusser/fieldaudit/internal/app/features/profile"
	reportsfeature "github.com/dalemusser/fieldaudit/internal/app/features/reports"
	securityeventsfeature "github.com/dalemusser/fieldaudit/internal/app/features/securityevents"
	usersfeature "github.com/dalemusser/fieldaudit/internal/app/features/users"
	"github.com/dalemusser/fieldaudit/internal/app/services/actions"
	"github.com/dalemusser/fieldaudit/internal/app/services/provisioning"
	"github.com/dalemusser/fieldaudit/internal/app/services/records"
	"github.com/dalemusser/fieldaudit/internal/app/services/reporting"
	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/dalemusser/fieldaudit/internal/app/store/mongostore"
	"github.com/dalemusser/fieldaudit/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	userstore "github.com/dalemusser/fieldaudit/internal/app/store/users"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"github.com/dalemusser/fieldaudit/internal/app/system/blobstore"
	"github.com/dalemusser/fieldaudit/internal/app/system/metrics"
	"github.com/dalemusser/fieldaudit/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventStore is where security events are written and read back.
// *audit.Store satisfies it.
type eventStore interface {
	auditlog.Sink
	securityeventsfeature.Querier
}

// backends is everything the router needs from the outside world.
type backends struct {
	Repo   repo.Repository
	Pinger healthfeature.Pinger
	Events eventStore
	States oauthstate.Keeper
	Blobs  blobstore.Store
	Redis  *redis.Client
}

// BuildHandler constructs the root router once config, connections and
// schema are in place.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	return newRouter(appCfg, coreCfg.Env == "prod", backends{
		Repo:   mongostore.New(db, logger),
		Pinger: deps.MongoClient,
		Events: audit.New(db),
		States: oauthstate.New(db),
		Blobs:  deps.Blobs,
		Redis:  deps.Redis,
	}, metrics.New(), logger)
}

func newRouter(appCfg AppConfig, secure bool, b backends, m *metrics.Metrics, logger *zap.Logger) (http.Handler, error) {
	ttl := time.Duration(appCfg.SessionTTLHrs) * time.Hour
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, ttl, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Reload the identity on every request so deactivation and role
	// changes apply immediately.
	sessionMgr.SetFetcher(userstore.NewFetcher(b.Repo.Users()))

	errLog := errorsfeature.NewErrorLogger(logger)
	auditLog := auditlog.New(b.Events, logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	recordsSvc := records.New(b.Repo, b.Blobs, logger, m)
	actionsSvc := actions.New(b.Repo, logger, m)
	provisioningSvc := provisioning.New(b.Repo, logger, m)
	reportingSvc := reporting.New(b.Repo, logger)
	reportingSvc.MaxExportRows = appCfg.ExportMaxRows
	reportingSvc.MonthlyWindow = appCfg.MonthlyWindow

	var limiter *ratelimit.LoginLimiter
	if b.Redis != nil {
		limiter = ratelimit.NewLoginLimiter(
			ratelimit.NewRedis(b.Redis, "ip", 10, time.Minute),
			ratelimit.NewRedis(b.Redis, "login", 5, 5*time.Minute),
		)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(m.Middleware)
	r.Use(sessionMgr.LoadSessionUser)
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	var checks []healthfeature.Check
	if b.Redis != nil {
		checks = append(checks, healthfeature.Check{Name: "redis", Probe: func(ctx context.Context) error {
			return b.Redis.Ping(ctx).Err()
		}})
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(b.Pinger, logger, checks...)))
	r.Handle("/metrics", m.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(b.Repo, sessionMgr, errLog, auditLog, limiter, m, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	googleHandler := authgooglefeature.NewHandler(b.Repo, loginHandler, b.States, authgooglefeature.Config{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		RedirectURL:  appCfg.GoogleRedirectURL,
	}, errLog, auditLog, logger)
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	profileHandler := profilefeature.NewHandler(b.Repo, provisioningSvc, auditLog, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

	// Administration
	districtsHandler := districtsfeature.NewHandler(b.Repo, recordsSvc, auditLog, errLog, logger)
	r.Mount("/districts", districtsfeature.Routes(districtsHandler, sessionMgr))

	coordinatorsHandler := coordinatorsfeature.NewHandler(b.Repo, provisioningSvc, auditLog, errLog, logger)
	r.Mount("/coordinators", coordinatorsfeature.Routes(coordinatorsHandler, sessionMgr))

	usersHandler := usersfeature.NewHandler(provisioningSvc, auditLog, errLog, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Field records
	patientsHandler := patientsfeature.NewHandler(b.Repo, recordsSvc, auditLog, errLog, logger)
	auditsHandler := auditsfeature.NewHandler(b.Repo, recordsSvc, auditLog, errLog, logger)
	r.Mount("/audits", auditsfeature.Routes(auditsHandler, patientsHandler, sessionMgr))
	r.Mount("/patients", patientsfeature.Routes(patientsHandler, sessionMgr))

	hospitalsHandler := hospitalsfeature.NewHandler(b.Repo, recordsSvc, errLog, logger)
	r.Mount("/hospitals", hospitalsfeature.Routes(hospitalsHandler, sessionMgr))

	actionLogsHandler := actionlogsfeature.NewHandler(b.Repo, actionsSvc, recordsSvc, auditLog, errLog, logger)
	r.Mount("/action-logs", actionlogsfeature.Routes(actionLogsHandler, sessionMgr))

	// Reporting and oversight
	reportsHandler := reportsfeature.NewHandler(b.Repo, reportingSvc, auditLog, m, errLog, logger)
	r.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

	securityHandler := securityeventsfeature.NewHandler(b.Events, b.Repo, errLog, logger)
	r.Mount("/security-events", securityeventsfeature.Routes(securityHandler, sessionMgr))

	return r, nil
}
