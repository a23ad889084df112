// Package log provides structured protocol logging for the LVar bridge.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events: raw area frames on the transport, decoded packets,
// commands and response lines, change scans, state changes and errors. It is
// separate from operational logging (slog); protocol capture is a complete
// machine-readable trace for debugging a consumer integration.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For a capture file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/bridge.lblog")
//
//	// Both
//	cfg.ProtocolLogger = log.NewMultiLogger(console, file)
//
// # File Format
//
// Capture files use the .lblog extension. A file is a sequence of tagged
// CBOR records: one Header (tag HeaderTag) naming the format and its
// version, then one Event per record (tag EventTag) with integer keys.
// Readers refuse files without a valid header and captures written by a
// newer version. The lvarbridge-log tool views and summarizes them.
package log
