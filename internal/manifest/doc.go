// Package manifest persists dubbing runs and their utterance records in the
// output directory's utterance_metadata.db (SQLite via modernc.org/sqlite).
//
// The schema lives in embedded migrations/NNNN_*.sql files; the highest
// applied number is kept in PRAGMA user_version. Each SaveRun replaces the run's utterance
// rows in a single transaction, so the database always holds one complete
// snapshot per run. Update mode reloads the latest snapshot with LatestRun.
package manifest
