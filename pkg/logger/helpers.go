package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs an inbound HTTP request once it has been served
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration, fields map[string]interface{}) {
	if l == nil {
		l = GetLogger()
	}

	merged := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration":    duration,
	}
	for k, v := range fields {
		merged[k] = v
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", merged)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", merged)
	default:
		l.InfoWithFields("HTTP request completed", merged)
	}
}

// LogClassification logs the outcome of one account check
func LogClassification(l Logger, username, label, rule, source string, duration time.Duration) {
	if l == nil {
		l = GetLogger()
	}

	l.WithFields(map[string]interface{}{
		"username": username,
		"label":    label,
		"rule":     rule,
		"source":   source,
		"duration": duration,
	}).Info("Account classified")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, settings map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
