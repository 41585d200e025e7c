// Package logging builds the slog loggers used across the pipeline.
//
// New constructs a logger from options (console or JSON output, level,
// optional log file); NewFromConfig wires in the application config and a
// per-run log file under the configured log directory. Attr helpers and
// standardized field keys keep structured output consistent, and WithContext
// stamps paper key, stage, and run id pulled from the request context.
package logging
