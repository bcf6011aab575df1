// Package logging wraps logrus with the context conventions used across the
// platform: every request carries a trace ID, and authenticated requests add
// user ID, role and site to each log line.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	// TraceIDKey carries the request trace ID in a context.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey carries the authenticated user ID in a context.
	UserIDKey contextKey = "user_id"
	// RoleKey carries the authenticated user role in a context.
	RoleKey contextKey = "role"
	// SiteKey carries the resolved site key in a context.
	SiteKey contextKey = "site"
	// TokenIDKey carries the JWT ID of the presented access token.
	TokenIDKey contextKey = "token_id"
)

// Logger is a component-scoped structured logger.
type Logger struct {
	entry *logrus.Entry
}

// New creates a logger for the named component with the given level and
// format ("json" or "text").
func New(component, level, format string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		l.SetLevel(lvl)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Logger{entry: l.WithField("component", component)}
}

// NewDefault creates an info-level JSON logger for the named component.
func NewDefault(component string) *Logger {
	return New(component, "info", "json")
}

// NewNop creates a logger that discards all output. Intended for tests.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{entry: logrus.NewEntry(l)}
}

// WithContext returns a logger annotated with the trace/user/role/site fields
// present in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := logrus.Fields{}
	if v := GetTraceID(ctx); v != "" {
		fields["trace_id"] = v
	}
	if v := GetUserID(ctx); v != "" {
		fields["user_id"] = v
	}
	if v := GetRole(ctx); v != "" {
		fields["role"] = v
	}
	if v := GetSite(ctx); v != "" {
		fields["site"] = v
	}
	if len(fields) == 0 {
		return l
	}
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithField returns a logger with an extra field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with extra fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger with the error attached.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

// LogRequest emits the standard access log line.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).WithFields(map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": duration.Milliseconds(),
	}).Info("request completed")
}

// LogSecurityEvent emits a warning-level security event with a stable name.
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).WithField("security_event", event).WithFields(fields).Warn("security event")
}

// NewTraceID generates a fresh trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in the context, if any.
func GetTraceID(ctx context.Context) string { return stringValue(ctx, TraceIDKey) }

// WithUserID stores the authenticated user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID returns the user ID stored in the context, if any.
func GetUserID(ctx context.Context) string { return stringValue(ctx, UserIDKey) }

// WithRole stores the authenticated user role in the context.
func WithRole(ctx context.Context, role string) context.Context {
	if role == "" {
		return ctx
	}
	return context.WithValue(ctx, RoleKey, role)
}

// GetRole returns the role stored in the context, if any.
func GetRole(ctx context.Context) string { return stringValue(ctx, RoleKey) }

// WithSite stores the resolved site key in the context.
func WithSite(ctx context.Context, site string) context.Context {
	if site == "" {
		return ctx
	}
	return context.WithValue(ctx, SiteKey, site)
}

// GetSite returns the site key stored in the context, if any.
func GetSite(ctx context.Context) string { return stringValue(ctx, SiteKey) }

// WithTokenID stores the presented token's JWT ID in the context.
func WithTokenID(ctx context.Context, tokenID string) context.Context {
	if tokenID == "" {
		return ctx
	}
	return context.WithValue(ctx, TokenIDKey, tokenID)
}

// GetTokenID returns the token ID stored in the context, if any.
func GetTokenID(ctx context.Context) string { return stringValue(ctx, TokenIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
