package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"redub/internal/services"
	"redub/internal/utterance"
)

// FileName is the manifest database name inside an output directory.
const FileName = "utterance_metadata.db"

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run describes one dubbing run.
type Run struct {
	ID             string
	VideoPath      string
	SourceLanguage string
	TargetLanguage string
	// BackgroundPath is the separated background track update mode reuses.
	BackgroundPath string
	Status         string
	OutputPath     string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Store manages manifest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the manifest in dir and applies migrations.
func Open(ctx context.Context, dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure manifest dir: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun upserts run and replaces its utterance rows with records.
func (s *Store) SaveRun(ctx context.Context, run Run, records []utterance.Record) error {
	if run.ID == "" {
		return errors.New("save run: id required")
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.Status == "" {
		run.Status = StatusRunning
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `INSERT INTO runs (
            id, video_path, source_language, target_language, background_path, status, output_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            video_path = excluded.video_path,
            source_language = excluded.source_language,
            target_language = excluded.target_language,
            background_path = excluded.background_path,
            status = excluded.status,
            output_path = excluded.output_path,
            updated_at = excluded.updated_at`,
		run.ID, run.VideoPath, run.SourceLanguage, run.TargetLanguage, run.BackgroundPath, run.Status, run.OutputPath,
		run.CreatedAt.UTC().Format(timeLayout), now.Format(timeLayout),
	); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM utterances WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("clear utterances: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO utterances (
            run_id, position, start_seconds, end_seconds, speaker_id, chunk_path,
            text, translation, voice, gender, for_dubbing, dubbed_path
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare utterance insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range records {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, r.Start, r.End, r.SpeakerID, r.Path,
			r.Text, r.Translation, r.Voice, r.Gender, boolToInt(r.ForDubbing), r.DubbedPath,
		); err != nil {
			return fmt.Errorf("insert utterance %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// FinishRun records the final status and output of a run.
func (s *Store) FinishRun(ctx context.Context, id, status, outputPath string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE runs SET status = ?, output_path = ?, updated_at = ? WHERE id = ?",
		status, outputPath, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "manifest", "finish run", id, nil)
	}
	return nil
}

// LatestRun returns the most recently updated run and its records.
// ErrNotFound is returned when the manifest holds no runs.
func (s *Store) LatestRun(ctx context.Context) (Run, []utterance.Record, error) {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM runs ORDER BY updated_at DESC, rowid DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, services.Wrap(services.ErrNotFound, "manifest", "latest run", "no runs recorded in "+s.path, nil)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("latest run: %w", err)
	}
	return s.LoadRun(ctx, id)
}

// LoadRun returns a run and its records ordered by position.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, []utterance.Record, error) {
	var run Run
	var created, updated string
	err := s.db.QueryRowContext(ctx, `SELECT id, video_path, source_language, target_language, background_path, status, output_path, created_at, updated_at
        FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.VideoPath, &run.SourceLanguage, &run.TargetLanguage, &run.BackgroundPath, &run.Status, &run.OutputPath, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, services.Wrap(services.ErrNotFound, "manifest", "load run", id, nil)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("load run: %w", err)
	}
	run.CreatedAt, _ = time.Parse(timeLayout, created)
	run.UpdatedAt, _ = time.Parse(timeLayout, updated)

	rows, err := s.db.QueryContext(ctx, `SELECT start_seconds, end_seconds, speaker_id, chunk_path, text, translation,
            voice, gender, for_dubbing, dubbed_path
        FROM utterances WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query utterances: %w", err)
	}
	defer rows.Close()

	var records []utterance.Record
	for rows.Next() {
		var r utterance.Record
		var forDubbing int
		if err := rows.Scan(&r.Start, &r.End, &r.SpeakerID, &r.Path, &r.Text, &r.Translation,
			&r.Voice, &r.Gender, &forDubbing, &r.DubbedPath); err != nil {
			return Run{}, nil, fmt.Errorf("scan utterance: %w", err)
		}
		r.ForDubbing = forDubbing != 0
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate utterances: %w", err)
	}
	return run, records, nil
}

// Runs lists all runs, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, video_path, source_language, target_language, background_path, status, output_path, created_at, updated_at
        FROM runs ORDER BY updated_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	var runs []Run
	for rows.Next() {
		var run Run
		var created, updated string
		if err := rows.Scan(&run.ID, &run.VideoPath, &run.SourceLanguage, &run.TargetLanguage, &run.BackgroundPath, &run.Status, &run.OutputPath, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt, _ = time.Parse(timeLayout, created)
		run.UpdatedAt, _ = time.Parse(timeLayout, updated)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
