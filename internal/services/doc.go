// Package services defines shared utilities consumed by the recognition
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, pipeline stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate adapter
//     failures into consistent, classifiable errors.
//
// Use these helpers when wiring new adapters so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
