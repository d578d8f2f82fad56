// Package logging provides a small leveled logger for the photo gallery.
//
// Levels, from most to least verbose:
//   - DEBUG: cache traces, per-request decisions
//   - INFO: lifecycle and warmup summaries
//   - WARN: recoverable failures (skipped photos, fallback config values)
//   - ERROR: failures surfaced to clients
//   - FATAL: startup failures that terminate the process
//
// The level comes from LOG_LEVEL (debug, info, warn, error) or DEBUG=true,
// read once on first use. Tests and embedders can override it with [SetLevel].
package logging
