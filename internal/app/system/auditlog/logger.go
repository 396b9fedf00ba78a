// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/onboardhub/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config fields.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in, sign-out and integration events.
	Auth string
	// Admin controls logging for tenant actions (invitations, reviews, policies).
	Admin string
}

// Logger writes audit events to MongoDB (via audit.Store) and zap, per Config.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// NewNopLogger returns a Logger that records nothing.
func NewNopLogger() *Logger {
	return &Logger{zapLog: zap.NewNop(), config: Config{Auth: ModeOff, Admin: ModeOff}}
}

// ValidMode reports whether s is an accepted destination.
func ValidMode(s string) bool {
	switch strings.ToLower(s) {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

// clientIP is RemoteAddr's host. Proxy headers are honoured only through
// the router's RealIP middleware when trust_proxy is set.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.UserAgent()
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CompanyID != nil {
		fields = append(fields, zap.String("company_id", event.CompanyID.Hex()))
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

// Log records an audit event based on configuration. A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := ModeAll
	switch event.Category {
	case audit.CategoryAuth:
		setting = strings.ToLower(l.config.Auth)
	case audit.CategoryAdmin:
		setting = strings.ToLower(l.config.Admin)
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}
	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful OAuth sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, companyID *primitive.ObjectID, authMethod, email string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		CompanyID: companyID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"auth_method": authMethod, "email": email},
	})
}

// LoginFailedUserDisabled logs a sign-in by a deactivated account.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedDisabled,
		UserID:        &userID,
		IP:            clientIP(r),
		UserAgent:     userAgent(r),
		FailureReason: "account disabled",
		Details:       map[string]string{"email": email},
	})
}

// Logout logs a sign-out. IDs arrive as hex strings from the session user.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDHex, companyIDHex string) {
	e := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
	}
	if oid, err := primitive.ObjectIDFromHex(userIDHex); err == nil {
		e.UserID = &oid
	}
	if oid, err := primitive.ObjectIDFromHex(companyIDHex); err == nil {
		e.CompanyID = &oid
	}
	l.Log(ctx, e)
}

// Integration logs a third-party account being linked or unlinked.
func (l *Logger) Integration(ctx context.Context, r *http.Request, eventType string, userID primitive.ObjectID, provider string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    &userID,
		ActorID:   &userID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   map[string]string{"provider": provider},
	})
}

// --- Admin Events ---

// Action describes a tenant-scoped change made by an actor.
type Action struct {
	EventType string
	ActorID   primitive.ObjectID
	CompanyID primitive.ObjectID
	TargetID  *primitive.ObjectID // affected user, when there is one
	Details   map[string]string
}

// Admin logs a tenant action.
func (l *Logger) Admin(ctx context.Context, r *http.Request, a Action) {
	actor := a.ActorID
	company := a.CompanyID
	e := audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: a.EventType,
		ActorID:   &actor,
		UserID:    a.TargetID,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
		Success:   true,
		Details:   a.Details,
	}
	if !company.IsZero() {
		e.CompanyID = &company
	}
	l.Log(ctx, e)
}
