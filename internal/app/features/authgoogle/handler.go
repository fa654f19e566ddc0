// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/fieldaudit/internal/app/features/errors"
	"github.com/dalemusser/fieldaudit/internal/app/features/login"
	"github.com/dalemusser/fieldaudit/internal/app/store/oauthstate"
	"github.com/dalemusser/fieldaudit/internal/app/store/repo"
	"github.com/dalemusser/fieldaudit/internal/app/system/apperr"
	"github.com/dalemusser/fieldaudit/internal/app/system/auditlog"
	"github.com/dalemusser/fieldaudit/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultUserInfoURL is Google's v2 userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// Config holds the OAuth client registration. AuthURL, TokenURL and
// UserInfoURL default to Google's when empty.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
}

// Handler signs existing identities in with their Google account. Google
// never creates identities; the verified email must already belong to an
// active user.
type Handler struct {
	Users    repo.UserStore
	Login    *login.Handler
	States   oauthstate.Keeper
	AuditLog *auditlog.Logger
	ErrLog   *errorsfeature.ErrorLogger
	Log      *zap.Logger

	cfg   Config
	oauth *oauth2.Config
	http  *resty.Client
}

func NewHandler(r repo.Repository, signer *login.Handler, states oauthstate.Keeper, cfg Config,
	errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	endpoint := google.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	return &Handler{
		Users:    r.Users(),
		Login:    signer,
		States:   states,
		AuditLog: audit,
		ErrLog:   errLog,
		Log:      logger,
		cfg:      cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		http: resty.New().
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("Accept", "application/json"),
	}
}

// IsConfigured reports whether client credentials were supplied.
func (h *Handler) IsConfigured() bool {
	return h.cfg.ClientID != "" && h.cfg.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin starts the round trip: it stores a one-time state token and
// redirects to Google's consent screen.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		errorsfeature.Write(w, http.StatusNotFound, "not_configured", "Google sign-in is not enabled.", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	state, err := newState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate oauth state", err, "Unable to start Google sign-in.")
		return
	}
	if err := h.States.Save(ctx, state, time.Now().Add(oauthstate.TTL)); err != nil {
		h.ErrLog.LogServerError(w, r, "save oauth state", err, "Unable to start Google sign-in.")
		return
	}

	http.Redirect(w, r, h.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		errorsfeature.Write(w, http.StatusNotFound, "not_configured", "Google sign-in is not enabled.", "")
		return
	}
	if e := query.Get(r, "error"); e != "" {
		h.Log.Info("google sign-in declined", zap.String("error", e))
		errorsfeature.Write(w, http.StatusUnauthorized, "google_declined", "Google sign-in was cancelled.", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ok, err := h.States.Consume(ctx, query.Get(r, "state"))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "consume oauth state", err, "A server error occurred.")
		return
	}
	if !ok {
		errorsfeature.Write(w, http.StatusBadRequest, "invalid_state", "Sign-in link expired. Please start again.", "")
		return
	}

	code := query.Get(r, "code")
	if code == "" {
		h.ErrLog.Fail(w, r, "google callback", apperr.Required("code"))
		return
	}
	tok, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("google code exchange failed", zap.Error(err))
		errorsfeature.Write(w, http.StatusBadGateway, "google_unavailable", "Could not complete Google sign-in.", "")
		return
	}

	info, err := h.fetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		h.Log.Warn("google userinfo failed", zap.Error(err))
		errorsfeature.Write(w, http.StatusBadGateway, "google_unavailable", "Could not complete Google sign-in.", "")
		return
	}
	email := strings.TrimSpace(info.Email)
	if email == "" || !info.VerifiedEmail {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		errorsfeature.Write(w, http.StatusUnauthorized, "email_unverified", "Your Google account has no verified email.", "")
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		h.AuditLog.LoginFailedUserNotFound(ctx, r, email)
		errorsfeature.Write(w, http.StatusUnauthorized, "no_account", "No account is registered for this Google address.", "")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "DB find user by email", err, "A server error occurred.")
		return
	}
	if !u.IsActive {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, email)
		errorsfeature.Write(w, http.StatusForbidden, "account_disabled",
			"Your account is currently disabled. Please contact an administrator.", "")
		return
	}

	h.Login.SignIn(w, r, u, "google")
}

type userInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, accessToken string) (userInfo, error) {
	var info userInfo
	resp, err := h.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&info).
		Get(h.cfg.UserInfoURL)
	if err != nil {
		return userInfo{}, fmt.Errorf("fetch user info: %w", err)
	}
	if resp.IsError() {
		return userInfo{}, fmt.Errorf("user info status %d", resp.StatusCode())
	}
	return info, nil
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

