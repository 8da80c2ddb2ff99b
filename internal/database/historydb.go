package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/dirmirror/internal/log"
	"github.com/nao1215/dirmirror/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "dirmirror.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("database: run not found")

// HistoryDB provides SQLite-based storage for mirror run history.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// With CreateIfNotExists false, a missing database is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	// The pragma is applied to every pooled connection.
	dsn := dbPath + "?mode=rw&_pragma=foreign_keys(1)"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		destination TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		dry_run INTEGER NOT NULL DEFAULT 0,
		files_discovered INTEGER NOT NULL DEFAULT 0,
		files_downloaded INTEGER NOT NULL DEFAULT 0,
		total_bytes INTEGER NOT NULL DEFAULT 0,
		listings_fetched INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		relative_path TEXT NOT NULL,
		url TEXT NOT NULL,
		local_path TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		checksum TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the summary row of one stored run.
type RunRecord struct {
	ID              int64
	BaseURL         string
	Destination     string
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          model.RunStatus
	DryRun          bool
	FilesDiscovered int
	FilesDownloaded int
	TotalBytes      int64
	ListingsFetched int
	Error           string
}

// Duration returns the run's wall time, or zero while unfinished.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveRun stores a report and its file results in one transaction and sets
// report.ID. URL passwords are redacted before anything is written.
func (hdb *HistoryDB) SaveRun(ctx context.Context, report *model.MirrorReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	var finishedAt sql.NullString
	if !report.FinishedAt.IsZero() {
		finishedAt = sql.NullString{String: formatTimestamp(report.FinishedAt), Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (base_url, destination, started_at, finished_at, status, dry_run,
		files_discovered, files_downloaded, total_bytes, listings_fetched, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.RedactURLs(report.BaseURL),
		report.Destination,
		formatTimestamp(report.StartedAt),
		finishedAt,
		report.Status.String(),
		report.DryRun,
		len(report.Inventory),
		len(report.Files),
		report.TotalBytes(),
		report.ListingsFetched,
		log.RedactURLs(report.ErrorMessage),
		log.RedactURLs(string(reportJSON)),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO files (run_id, relative_path, url, local_path, bytes, duration_ms, checksum)
	VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare file insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range report.Files {
		if _, err := stmt.ExecContext(ctx, id, f.RelativePath, log.RedactURLs(f.URL), f.LocalPath, f.Bytes, f.Duration.Milliseconds(), f.Checksum); err != nil {
			return 0, fmt.Errorf("failed to save file %s: %w", f.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	report.ID = id
	return id, nil
}

const runColumns = `id, base_url, destination, started_at, finished_at, status, dry_run,
	files_discovered, files_downloaded, total_bytes, listings_fetched, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  string
		finishedAt sql.NullString
		status     string
		errMsg     sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.BaseURL, &rec.Destination, &startedAt, &finishedAt, &status,
		&rec.DryRun, &rec.FilesDiscovered, &rec.FilesDownloaded, &rec.TotalBytes,
		&rec.ListingsFetched, &errMsg); err != nil {
		return RunRecord{}, err
	}

	rec.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		rec.FinishedAt = parseTimestamp(finishedAt.String)
	}
	parsed, err := model.ParseRunStatus(status)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Status = parsed
	rec.Error = errMsg.String
	return rec, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
// A non-empty baseURL restricts the result to that root.
func (hdb *HistoryDB) ListRuns(ctx context.Context, baseURL string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, 2)
	if baseURL != "" {
		query += ` WHERE base_url = ?`
		args = append(args, log.RedactURLs(baseURL))
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns the summary row of one run.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rec, nil
}

// GetReport returns the full stored report of one run.
func (hdb *HistoryDB) GetReport(ctx context.Context, id int64) (*model.MirrorReport, error) {
	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.MirrorReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	report.ID = id
	return &report, nil
}

// GetRunFiles returns the files written by one run in download order.
func (hdb *HistoryDB) GetRunFiles(ctx context.Context, runID int64) ([]model.FileResult, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT relative_path, url, local_path, bytes, duration_ms, checksum
	FROM files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get files: %w", err)
	}
	defer rows.Close()

	files := make([]model.FileResult, 0)
	for rows.Next() {
		var (
			f  model.FileResult
			ms int64
		)
		if err := rows.Scan(&f.RelativePath, &f.URL, &f.LocalPath, &f.Bytes, &ms, &f.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		f.Duration = time.Duration(ms) * time.Millisecond
		files = append(files, f)
	}
	return files, rows.Err()
}

// LastRun returns the most recent run for baseURL, or ErrRunNotFound.
func (hdb *HistoryDB) LastRun(ctx context.Context, baseURL string) (*RunRecord, error) {
	runs, err := hdb.ListRuns(ctx, baseURL, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no run for %s", ErrRunNotFound, log.RedactURLs(baseURL))
	}
	return &runs[0], nil
}

// DeleteRun removes a run and its file rows.
func (hdb *HistoryDB) DeleteRun(ctx context.Context, id int64) error {
	res, err := hdb.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return nil
}

// storedTimestampLayout sorts lexically in time order.
const storedTimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// More specific formats come first.
var timestampFormats = []string{
	storedTimestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp tries each known format and returns the zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
