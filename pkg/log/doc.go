// Package log provides structured tracing of publication engine events.
//
// This package defines the Logger interface and Event types for capturing
// what the engine decided for each subscription: admissions, rejections,
// publications (with the trigger that caused them) and terminations.
// It is separate from operational logging (slog) - the trace provides a
// complete machine-readable record for debugging QoS behavior.
//
// # Basic Usage
//
//	// For development: trace to console via slog
//	cfg.TraceLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.TraceLogger, _ = log.NewFileLogger("/var/log/mash/publications.mlog")
//
//	// Both: use MultiLogger
//	cfg.TraceLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys.
// Use Reader to iterate over them with an optional Filter.
package log
