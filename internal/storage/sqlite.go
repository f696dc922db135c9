// Package storage provides SQLite-based persistence for level history.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/codequest/internal/session"
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// CompletionRecord is one solved run of a level.
type CompletionRecord struct {
	ID             int64
	LevelID        string
	Stars          int
	CompletionSecs int
	FailedAttempts int
	HintsUsed      int
	CodeLines      int
	Source         string
	CreatedAt      time.Time
}

// AttemptRecord is one judged submission, successful or not.
type AttemptRecord struct {
	ID         int64
	LevelID    string
	Submission int64
	Outcome    string
	Message    string
	CreatedAt  time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Savers run on their own goroutines; one connection serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS completions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level_id TEXT NOT NULL,
			stars INTEGER NOT NULL,
			completion_secs INTEGER NOT NULL DEFAULT 0,
			failed_attempts INTEGER NOT NULL DEFAULT 0,
			hints_used INTEGER NOT NULL DEFAULT 0,
			code_lines INTEGER NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_completions_level ON completions(level_id);
		CREATE INDEX IF NOT EXISTS idx_completions_best ON completions(level_id, stars DESC, completion_secs ASC);

		CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level_id TEXT NOT NULL,
			submission INTEGER NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_attempts_level ON attempts(level_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveCompletion records a solved level and returns the row id.
func (s *Store) SaveCompletion(ctx context.Context, c CompletionRecord) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO completions
		 (level_id, stars, completion_secs, failed_attempts, hints_used, code_lines, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.LevelID, c.Stars, c.CompletionSecs, c.FailedAttempts, c.HintsUsed, c.CodeLines, c.Source,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save completion: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// InsertAttempt records one judged submission and returns the row id.
func (s *Store) InsertAttempt(ctx context.Context, a AttemptRecord) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO attempts (level_id, submission, outcome, message) VALUES (?, ?, ?, ?)",
		a.LevelID, a.Submission, a.Outcome, a.Message,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// Completions returns the completions of a level, best first.
func (s *Store) Completions(levelID string, limit int) ([]CompletionRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, level_id, stars, completion_secs, failed_attempts, hints_used, code_lines, source, created_at
		 FROM completions
		 WHERE level_id = ?
		 ORDER BY stars DESC, completion_secs ASC, id ASC
		 LIMIT ?`,
		levelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query completions: %w", err)
	}
	defer rows.Close()

	var out []CompletionRecord
	for rows.Next() {
		var c CompletionRecord
		var createdAt any
		if err := rows.Scan(&c.ID, &c.LevelID, &c.Stars, &c.CompletionSecs, &c.FailedAttempts,
			&c.HintsUsed, &c.CodeLines, &c.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// RecentAttempts returns the latest attempts on a level, newest first.
func (s *Store) RecentAttempts(levelID string, limit int) ([]AttemptRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, level_id, submission, outcome, message, created_at
		 FROM attempts
		 WHERE level_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		levelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query attempts: %w", err)
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		var createdAt any
		if err := rows.Scan(&a.ID, &a.LevelID, &a.Submission, &a.Outcome, &a.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		a.CreatedAt = parseTime(createdAt)
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return out, nil
}

// ClearLevel deletes the whole history of a level.
func (s *Store) ClearLevel(levelID string) error {
	for _, table := range []string{"completions", "attempts"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE level_id = ?", levelID); err != nil {
			return fmt.Errorf("storage: cannot clear %s: %w", table, err)
		}
	}
	return nil
}

// LevelStats contains aggregated statistics for a level.
type LevelStats struct {
	LevelID     string
	Completions int
	BestStars   int
	// BestTime is the fastest completion in seconds.
	BestTime   int
	Attempts   int
	Failures   int
	LastPlayed time.Time
}

// Completed reports whether the level was solved at least once.
func (s LevelStats) Completed() bool {
	return s.Completions > 0
}

// LevelStats retrieves aggregated statistics for one level. A level that
// was never played yields zero stats.
func (s *Store) LevelStats(levelID string) (*LevelStats, error) {
	all, err := s.AllLevelStats()
	if err != nil {
		return nil, err
	}
	if st, ok := all[levelID]; ok {
		return st, nil
	}
	return &LevelStats{LevelID: levelID}, nil
}

// AllLevelStats retrieves statistics for every level with any history.
func (s *Store) AllLevelStats() (map[string]*LevelStats, error) {
	stats := make(map[string]*LevelStats)
	get := func(id string) *LevelStats {
		st, ok := stats[id]
		if !ok {
			st = &LevelStats{LevelID: id}
			stats[id] = st
		}
		return st
	}

	rows, err := s.db.Query(
		`SELECT level_id, COUNT(*), MAX(stars), MIN(completion_secs), MAX(created_at)
		 FROM completions
		 GROUP BY level_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get completion stats: %w", err)
	}
	for rows.Next() {
		var id string
		var count, stars, best int
		var last any
		if err := rows.Scan(&id, &count, &stars, &best, &last); err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st := get(id)
		st.Completions = count
		st.BestStars = stars
		st.BestTime = best
		st.LastPlayed = later(st.LastPlayed, parseTime(last))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	rows, err = s.db.Query(
		`SELECT level_id, COUNT(*), SUM(CASE WHEN outcome = 'success' THEN 0 ELSE 1 END), MAX(created_at)
		 FROM attempts
		 GROUP BY level_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get attempt stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var count, failures int
		var last any
		if err := rows.Scan(&id, &count, &failures, &last); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st := get(id)
		st.Attempts = count
		st.Failures = failures
		st.LastPlayed = later(st.LastPlayed, parseTime(last))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// SaverName is reported in session events.
const SaverName = "local"

// Name implements session.ProgressSaver.
func (s *Store) Name() string { return SaverName }

// SaveProgress implements session.ProgressSaver. The receipt notes a new
// personal best.
func (s *Store) SaveProgress(ctx context.Context, c session.Completion) (session.Receipt, error) {
	prev, err := s.LevelStats(c.LevelID)
	if err != nil {
		return session.Receipt{}, err
	}

	rec := CompletionRecord{
		LevelID:        c.LevelID,
		Stars:          c.Stars,
		CompletionSecs: c.CompletionSeconds(),
		FailedAttempts: c.FailedAttempts,
		HintsUsed:      c.HintsUsed,
		CodeLines:      c.CodeLines,
		Source:         c.Source,
	}
	if _, err := s.SaveCompletion(ctx, rec); err != nil {
		return session.Receipt{}, err
	}

	var r session.Receipt
	switch {
	case !prev.Completed():
		r.Note = fmt.Sprintf("first clear: %d stars", c.Stars)
	case c.Stars > prev.BestStars:
		r.Note = fmt.Sprintf("new best: %d stars", c.Stars)
	case c.Stars == prev.BestStars && rec.CompletionSecs < prev.BestTime:
		r.Note = fmt.Sprintf("new best time: %ds", rec.CompletionSecs)
	default:
		r.Note = "saved locally"
	}
	return r, nil
}

// RecordAttempt implements session.AttemptRecorder.
func (s *Store) RecordAttempt(ctx context.Context, a session.Attempt) error {
	_, err := s.InsertAttempt(ctx, AttemptRecord{
		LevelID:    a.LevelID,
		Submission: int64(a.Submission), //nolint:gosec // submission ids are small
		Outcome:    a.Outcome,
		Message:    a.Message,
	})
	return err
}

var (
	_ session.ProgressSaver   = (*Store)(nil)
	_ session.AttemptRecorder = (*Store)(nil)
)

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// ErrNoHistory is returned by BestCompletion for unplayed levels.
var ErrNoHistory = errors.New("storage: no completions")

// BestCompletion returns the best completion of a level.
func (s *Store) BestCompletion(levelID string) (CompletionRecord, error) {
	cs, err := s.Completions(levelID, 1)
	if err != nil {
		return CompletionRecord{}, err
	}
	if len(cs) == 0 {
		return CompletionRecord{}, ErrNoHistory
	}
	return cs[0], nil
}
