// Package services defines shared utilities consumed by the stage executors
// and the external collaborator clients.
//
// Key responsibilities:
//   - Context helpers that stamp paper keys, stage names, and run correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify external
//     failures into transient (retry with budget) versus permanent
//     (operator-visible, no auto-retry) outcomes.
//
// Use these helpers when wiring new executor logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
