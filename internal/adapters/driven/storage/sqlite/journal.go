package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/discussion-sync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/discussion-sync/internal/core/domain"
	"github.com/custodia-labs/discussion-sync/internal/core/ports/driven"
)

// Ensure Journal implements the interface.
var _ driven.Journal = (*Journal)(nil)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 20

// Journal is a SQLite-backed driven.Journal.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewJournal opens (or creates) the journal database at path.
func NewJournal(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	// WAL mode lets `history` read while a run is writing
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	j := &Journal{db: db, path: path, now: time.Now}

	if err := j.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Record appends an outcome.
func (j *Journal) Record(ctx context.Context, o *domain.Outcome) error {
	removed, err := json.Marshal(nonNil(o.Removed))
	if err != nil {
		return fmt.Errorf("encoding removed paths: %w", err)
	}
	notices := o.Notices
	if notices == nil {
		notices = []domain.Notice{}
	}
	noticesJSON, err := json.Marshal(notices)
	if err != nil {
		return fmt.Errorf("encoding notices: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, action, discussion_id, url, category, status,
			written, removed, notices, started_at, finished_at, recorded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.RunID, string(o.Action), o.DiscussionID, o.URL, o.Category, string(o.Status),
		o.Written, string(removed), string(noticesJSON),
		formatTime(o.StartedAt), formatTime(o.FinishedAt), formatTime(j.now()),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", o.RunID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, action, discussion_id, url, category, status,
		       written, removed, notices, started_at, finished_at, recorded_at
		FROM runs
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var (
			e                               domain.JournalEntry
			action, status                  string
			removed, notices                string
			startedAt, finishedAt, recorded string
		)
		if err := rows.Scan(
			&e.RunID, &action, &e.DiscussionID, &e.URL, &e.Category, &status,
			&e.Written, &removed, &notices, &startedAt, &finishedAt, &recorded,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		e.Action = domain.Action(action)
		e.Status = domain.Status(status)

		if err := json.Unmarshal([]byte(removed), &e.Removed); err != nil {
			return nil, fmt.Errorf("decoding removed paths of %s: %w", e.RunID, err)
		}
		if err := json.Unmarshal([]byte(notices), &e.Notices); err != nil {
			return nil, fmt.Errorf("decoding notices of %s: %w", e.RunID, err)
		}
		if len(e.Removed) == 0 {
			e.Removed = nil
		}
		if len(e.Notices) == 0 {
			e.Notices = nil
		}

		e.StartedAt = parseTime(startedAt)
		e.FinishedAt = parseTime(finishedAt)
		e.RecordedAt = parseTime(recorded)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// migrate applies pending .up.sql migrations in version order.
func (j *Journal) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := j.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_runs.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := j.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := j.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
