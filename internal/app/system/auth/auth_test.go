package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fieldaudit/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401JSON(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireSignedIn(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/audits", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "unauthorized" {
		t.Errorf("expected code unauthorized, got %q", body.Error.Code)
	}
}

func TestRequireRole_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("superuser")(http.HandlerFunc(okHandler))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/districts", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole_Matrix(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("superuser", "staff")(http.HandlerFunc(okHandler))

	tests := []struct {
		role     string
		expected int
	}{
		{"superuser", http.StatusOK},
		{"staff", http.StatusOK},
		{"STAFF", http.StatusOK},
		{"coordinator", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := withTestUser(httptest.NewRequest("GET", "/api/reports/summary", nil), tc.role)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Errorf("expected no user, got %+v (ok=%v)", user, ok)
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := withTestUser(httptest.NewRequest("GET", "/", nil), "coordinator")

	user, ok := auth.CurrentUser(req)
	if !ok || user == nil {
		t.Fatal("expected user in context")
	}
	if user.Role != "coordinator" {
		t.Errorf("expected role coordinator, got %q", user.Role)
	}
}

// signIn runs SignIn and returns the cookies it set.
func signIn(t *testing.T, sm *auth.SessionManager, u auth.SessionUser) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/api/login", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return cookies
}

func TestSignIn_LoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signIn(t, sm, auth.SessionUser{
		ID: "507f1f77bcf86cd799439011", LoginName: "jane_doe", Name: "Jane Doe", Role: "coordinator",
	})

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected session user to be loaded")
	}
	if got.LoginName != "jane_doe" || got.Role != "coordinator" || got.Name != "Jane Doe" {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestLoadSessionUser_TamperedCookieIsSignedOut(t *testing.T) {
	sm := newTestSessionManager(t)

	var ok bool
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "garbage"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if ok {
		t.Error("tampered cookie must not yield a user")
	}
}

type stubFetcher struct{ users map[string]*auth.SessionUser }

func (s stubFetcher) FetchUser(_ context.Context, id string) *auth.SessionUser { return s.users[id] }

func TestLoadSessionUser_FetcherRefreshesAndDrops(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signIn(t, sm, auth.SessionUser{ID: "a1", LoginName: "x", Role: "coordinator"})

	load := func() *auth.SessionUser {
		var got *auth.SessionUser
		h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = auth.CurrentUser(r)
		}))
		req := httptest.NewRequest("GET", "/api/me", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		return got
	}

	sm.SetFetcher(stubFetcher{users: map[string]*auth.SessionUser{
		"a1": {ID: "a1", LoginName: "x", Role: "staff"},
	}})
	if u := load(); u == nil || u.Role != "staff" {
		t.Fatalf("expected refreshed role staff, got %+v", u)
	}

	sm.SetFetcher(stubFetcher{users: map[string]*auth.SessionUser{}})
	if u := load(); u != nil {
		t.Fatalf("expected deactivated user to be dropped, got %+v", u)
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/api/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge >= 0 {
			t.Errorf("expected expired cookie, got MaxAge=%d", c.MaxAge)
		}
	}
}

func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:        "507f1f77bcf86cd799439011",
		Name:      "Test User",
		LoginName: "test_user",
		Role:      role,
	})
}
