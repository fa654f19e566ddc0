// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/fieldaudit/internal/app/store/audit"
	"github.com/mssola/useragent"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sink persists events. *audit.Store is the production sink.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Config holds security-event logging configuration.
type Config struct {
	// Auth controls sign-in, sign-out and credential events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Admin controls district, coordinator, user and record administration.
	// Values as for Auth.
	Admin string
}

// Logger records security events to a Sink and to zap.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a Logger.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

// clientIP takes the first X-Forwarded-For hop, then X-Real-IP, then RemoteAddr.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

// clientSummary condenses a User-Agent header into browser, major version
// and OS.
func clientSummary(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if ua.Bot() {
		return "bot: " + name
	}
	out := name
	if major, _, _ := strings.Cut(version, "."); major != "" {
		out += " " + major
	}
	if os := ua.OS(); os != "" {
		out += " on " + os
	}
	if ua.Mobile() {
		out += " (mobile)"
	}
	return out
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.Client != "" {
		fields = append(fields, zap.String("client", event.Client))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.DistrictID != nil {
		fields = append(fields, zap.String("district_id", event.DistrictID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the category's setting. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	default:
		setting = "all"
	}
	if setting == "" {
		setting = "all"
	}
	if setting == "off" {
		return
	}
	if event.Client == "" {
		event.Client = clientSummary(event.UserAgent)
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func hexPtr(s string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return nil
	}
	return &id
}

// --- Authentication events ---

// LoginSuccess logs a successful sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, districtID *primitive.ObjectID, method, loginName string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLoginSuccess,
		UserID:     &userID,
		DistrictID: districtID,
		IP:         clientIP(r),
		UserAgent:  userAgent(r),
		Success:    true,
		Details:    map[string]string{"auth_method": method, "login_name": loginName},
	})
}

func (l *Logger) loginFailed(ctx context.Context, r *http.Request, eventType, reason string, userID *primitive.ObjectID, attempted string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     eventType,
		UserID:        userID,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: reason,
		Details:       map[string]string{"attempted": attempted},
	})
}

// LoginFailedUserNotFound logs a sign-in for an unknown login name.
func (l *Logger) LoginFailedUserNotFound(ctx context.Context, r *http.Request, attempted string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedUserNotFound, "user not found", nil, attempted)
}

// LoginFailedWrongPassword logs a sign-in with a bad credential.
func (l *Logger) LoginFailedWrongPassword(ctx context.Context, r *http.Request, userID primitive.ObjectID, attempted string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedWrongPassword, "wrong password", &userID, attempted)
}

// LoginFailedUserDisabled logs a sign-in by an inactive identity.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, attempted string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedUserDisabled, "user inactive", &userID, attempted)
}

// LoginRateLimited logs a sign-in refused by the rate limiter.
func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, attempted string) {
	l.loginFailed(ctx, r, audit.EventLoginFailedRateLimit, "rate limited", nil, attempted)
}

// Logout logs a sign-out. Invalid hex ids are ignored.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID, districtID string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAuth,
		EventType:  audit.EventLogout,
		UserID:     hexPtr(userID),
		DistrictID: hexPtr(districtID),
		IP:         clientIP(r),
		UserAgent:  userAgent(r),
		Success:    true,
	})
}

// CredentialReset logs an administrator issuing a new credential.
func (l *Logger) CredentialReset(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventCredentialReset,
		ActorID:   &actorID,
		UserID:    &userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// PasswordChanged logs a user replacing their own password.
func (l *Logger) PasswordChanged(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventPasswordChanged,
		ActorID:   &userID,
		UserID:    &userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	})
}

// --- Administrative events ---

// Admin logs an administrative change. target is the affected identity, if any.
func (l *Logger) Admin(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, target *primitive.ObjectID, districtID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:   audit.CategoryAdmin,
		EventType:  eventType,
		ActorID:    &actorID,
		UserID:     target,
		DistrictID: districtID,
		IP:         clientIP(r),
		UserAgent:  userAgent(r),
		Success:    true,
		Details:    details,
	})
}

// CoordinatorProvisioned logs a new coordinator and its login identity.
func (l *Logger) CoordinatorProvisioned(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID, districtID *primitive.ObjectID, employeeID, loginName string) {
	l.Admin(ctx, r, audit.EventCoordinatorProvisioned, actorID, &userID, districtID, map[string]string{
		"employee_id": employeeID,
		"login_name":  loginName,
	})
}

// BulkAction logs a coordinator bulk operation over patients.
func (l *Logger) BulkAction(ctx context.Context, r *http.Request, actorID primitive.ObjectID, districtID *primitive.ObjectID, action string, affected int) {
	l.Admin(ctx, r, audit.EventBulkAction, actorID, nil, districtID, map[string]string{
		"action":   action,
		"affected": strconv.Itoa(affected),
	})
}
