package ratelimit

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowAndWindowExpiry(t *testing.T) {
	l := New(2, time.Minute)
	defer l.Close()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		got, _ := l.Allow(ctx, "k")
		if got != want {
			t.Errorf("attempt %d: Allow = %v, want %v", i+1, got, want)
		}
	}
	if r := l.Remaining("k"); r != 0 {
		t.Errorf("Remaining = %d, want 0", r)
	}

	now = now.Add(61 * time.Second)
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Error("expected a new window after expiry")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)
	defer l.Close()
	ctx := context.Background()

	_, _ = l.Allow(ctx, "k")
	if ok, _ := l.Allow(ctx, "k"); ok {
		t.Fatal("second attempt should be refused")
	}
	_ = l.Reset(ctx, "k")
	if ok, _ := l.Allow(ctx, "k"); !ok {
		t.Error("attempt after Reset should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded first hop", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", "", " 198.51.100.4 ", "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr strips port", "", "", "192.0.2.1:5555", "192.0.2.1"},
		{"remote addr without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/login", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoginLimiter_PerLogin(t *testing.T) {
	byIP, byLogin := New(100, time.Minute), New(2, time.Minute)
	defer byIP.Close()
	defer byLogin.Close()
	ll := NewLoginLimiter(byIP, byLogin)
	r := httptest.NewRequest("POST", "/login", nil)

	for range 2 {
		if ok, _ := ll.Check(r, "EMP_1"); !ok {
			t.Fatal("attempt within limit refused")
		}
	}
	if ok, reason := ll.Check(r, " emp_1 "); ok || reason == "" {
		t.Error("third attempt for the same login should be refused with a reason")
	}
	if ok, _ := ll.Check(r, "other"); !ok {
		t.Error("a different login should be unaffected")
	}

	ll.ResetLogin(context.Background(), "emp_1")
	if ok, _ := ll.Check(r, "emp_1"); !ok {
		t.Error("attempt after ResetLogin should be allowed")
	}
}

type failingCounter struct{}

func (failingCounter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}
func (failingCounter) Reset(context.Context, string) error { return nil }

func TestLoginLimiter_FailsOpen(t *testing.T) {
	ll := NewLoginLimiter(failingCounter{}, failingCounter{})
	if ok, _ := ll.Check(httptest.NewRequest("POST", "/login", nil), "x"); !ok {
		t.Error("counter errors should not lock users out")
	}
}
