// Package logger provides the structured logging interface used across igaudit.
//
// It wraps zerolog behind a small Logger interface with field-based helpers:
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("username", "natgeo").Info("Checking account")
//	logger.GetLogger().InfoWithFields("Account classified", map[string]interface{}{
//	    "label": "real",
//	    "rule":  "none",
//	})
//
// Console output uses a colored writer; setting logging.json or logging.file
// switches to JSON lines. Tests use NewTestLogger to capture and inspect
// messages, or NewNopLogger to discard them.
package logger
