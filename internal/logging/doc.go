// Package logging provides structured logging for ralphui.
//
// This package wraps Go's log/slog to provide JSON-formatted logs. Every
// component of the view channel (message channel, event bus, panel state
// store, HTTP host) receives a *Logger and reports non-fatal failures through
// it: transport delivery errors, handler panics, malformed persisted state and
// script errors reported by a view.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/logs", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("view attached", "view", "panel")
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	panelLogger := logger.WithView("panel").WithComponent("channel")
//	panelLogger.Warn("delivery failed", "type", "update")
//
// Output:
//
//	{"time":"...","level":"WARN","msg":"delivery failed","view":"panel","component":"channel","type":"update"}
//
// # Log Rotation
//
// NewLoggerWithRotation rotates ralphui.log once it exceeds MaxSizeMB,
// keeping MaxBackups numbered backups (ralphui.log.1 is the newest).
//
// # Testing
//
// Use [NopLogger] to discard output, or [NewWriterLogger] over a bytes.Buffer
// to assert on emitted entries.
package logging
