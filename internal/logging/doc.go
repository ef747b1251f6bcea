// Package logging provides structured logging for linebridge.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. Logs never go to stdout: stdout carries the
// line protocol, so a bridge logs to a file under its log directory or, when
// no directory is configured, to stderr.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR), changeable at runtime
//   - Context propagation (component, direction, arbitrary attributes)
//   - Log rotation with configurable size limits
//   - Optional gzip compression for rotated logs
//   - Log aggregation across rotated backups, with filtering
//   - Export to JSON, text, or CSV formats
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the parent's writer and level, so
// [Logger.SetLevel] on any of them affects the whole family and
// [Logger.Close] on any of them closes the shared file exactly once.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(dir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	bridgeLog := logger.WithComponent("bridge").WithDirection("inbound")
//	bridgeLog.Info("message received", "length", 12)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"message received","component":"bridge","direction":"inbound","length":12}
//
// # Log Rotation
//
// [RotatingWriter] renames bridge.log to bridge.log.1 once it would exceed
// MaxSizeMB, shifting older backups up and dropping anything past
// MaxBackups. With Compress set, backups are gzipped in the background;
// [RotatingWriter.Close] waits for pending compression.
//
// # Log Aggregation
//
// [AggregateLogs] reads bridge.log and every backup [BackupFiles] finds,
// merges them in timestamp order, and [FilterLogs] narrows the result:
//
//	entries, err := logging.AggregateLogs(dir)
//	outbound := logging.FilterLogs(entries, logging.LogFilter{
//	    Direction: "outbound",
//	    Level:     "WARN",
//	})
//	err = logging.WriteLogEntries(os.Stdout, outbound, "text")
package logging
