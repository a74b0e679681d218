// Package logging builds the slog loggers redub uses.
//
// Two handlers are available: a console handler that prints a header line per
// record (component, stage, target language) with a short list of readable
// fields, and a JSON handler for log shipping. Caller locations are added at
// debug level.
//
// Stage code derives loggers with WithContext so run IDs, stage names and the
// target language travel with every line, and reports recoverable problems
// through WarnWithContext, which always attaches event_type, error_hint and
// impact.
package logging
