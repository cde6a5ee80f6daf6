// Package services defines shared utilities consumed by the conversion
// pipeline and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, attempt IDs, worker identity, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent across the pipeline.
//   - Small abstractions that make command execution from external tools
//     testable.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the worker.
package services
