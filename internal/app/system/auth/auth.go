// Package auth keeps the signed-in identity in a gorilla cookie session and
// guards routes by sign-in and role.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey   = "is_authenticated"
	userIDKey   = "user_id"
	loginKey    = "login_name"
	nameKey     = "user_name"
	roleKey     = "user_role"
	signedAtKey = "signed_in_at"
)

// SessionUser is what the session carries and handlers read from context.
type SessionUser struct {
	ID        string
	LoginName string
	Name      string
	Role      string // superuser | staff | coordinator
}

// UserFetcher reloads the identity on each request so deactivation and
// role changes apply without waiting for the cookie to expire. It returns
// nil when the identity no longer exists or is inactive.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the signed-in user placed in context by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// WithTestUser returns r carrying u as the signed-in user.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// SessionManager owns the cookie store for one router.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	fetcher UserFetcher
	logger  *zap.Logger
}

// NewSessionManager builds a cookie store keyed by sessionKey. With secure
// set, cookies are Secure and SameSite=None; otherwise SameSite=Lax so
// plain-http development works.
func NewSessionManager(sessionKey, name, domain string, ttl time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, errors.New("session key is empty; provide at least 32 random characters")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended", zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "fieldaudit-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}
	store.MaxAge(store.Options.MaxAge)

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.Duration("ttl", ttl))

	return &SessionManager{store: store, name: name, logger: logger}, nil
}

// SetFetcher enables per-request identity reloads.
func (sm *SessionManager) SetFetcher(f UserFetcher) { sm.fetcher = f }

// SignIn writes u into a fresh session.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, err := sm.store.New(r, sm.name)
	if err != nil && !isDecodeErr(err) {
		return fmt.Errorf("new session: %w", err)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[loginKey] = u.LoginName
	sess.Values[nameKey] = u.Name
	sess.Values[roleKey] = u.Role
	sess.Values[signedAtKey] = time.Now().UTC().Unix()
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// isDecodeErr reports a stale or tampered cookie, which is treated as signed out.
func isDecodeErr(err error) bool {
	var mErr securecookie.MultiError
	if errors.As(err, &mErr) {
		return mErr.IsDecode()
	}
	var cErr securecookie.Error
	return errors.As(err, &cErr) && cErr.IsDecode()
}

// LoadSessionUser puts the session's user, if any, into the request context.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := sm.store.Get(r, sm.name)
		if err != nil && !isDecodeErr(err) {
			sm.logger.Warn("session read failed", zap.Error(err))
		}
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:        str(sess, userIDKey),
				LoginName: str(sess, loginKey),
				Name:      str(sess, nameKey),
				Role:      str(sess, roleKey),
			}
			if sm.fetcher != nil {
				u = sm.fetcher.FetchUser(r.Context(), u.ID)
			}
			if u != nil {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func str(s *sessions.Session, key string) string {
	v, _ := s.Values[key].(string)
	return v
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}

// RequireSignedIn answers 401 when no user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a user and 403 when the user's role is
// not among allowed.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				writeError(w, http.StatusForbidden, "forbidden", "you do not have access to this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
