// Package services defines shared utilities consumed by the dubbing stages and
// the external tool and HTTP integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and target languages
//     for logging.
//   - Structured error markers plus the Wrap helper so failures carry the
//     stage and operation that produced them.
//   - Exit code tagging so the CLI can report stable process statuses.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
