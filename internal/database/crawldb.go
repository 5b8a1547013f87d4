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

	"github.com/nao1215/doralscan/internal/model"
)

// DBFileName is the name of the database file inside the data directory.
const DBFileName = "doralscan.db"

// CrawlDB provides SQLite-based storage for crawl runs.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	dsn += "&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl of a directory seed
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		seed_url TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		timed_out INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON crawl_runs(seed_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON crawl_runs(started_at);

	-- Finalized business records of each run
	CREATE TABLE IF NOT EXISTS businesses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES crawl_runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		name TEXT,
		industry TEXT,
		offer TEXT,
		website TEXT,
		phones_json TEXT NOT NULL,
		status TEXT NOT NULL,
		follow_up_error TEXT,
		fingerprint TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_businesses_run ON businesses(run_id);
	CREATE INDEX IF NOT EXISTS idx_businesses_fingerprint ON businesses(fingerprint);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunMetadata summarizes a stored run without its records.
type RunMetadata struct {
	RunID      string
	SeedURL    string
	StartedAt  time.Time
	FinishedAt time.Time
	Stats      model.CrawlStats
	TimedOut   bool
	Error      string
}

// Complete reports whether the run finished without error or cancellation.
func (m RunMetadata) Complete() bool {
	return !m.TimedOut && m.Error == ""
}

// SaveCrawlReport stores a run and its records in one transaction.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (err error) {
	statsJSON, err := json.Marshal(report.Stats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO crawl_runs (id, seed_url, started_at, finished_at, stats_json, timed_out, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.SeedURL,
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		string(statsJSON),
		report.TimedOut,
		nullString(report.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO businesses (run_id, position, name, industry, offer, website, phones_json, status, follow_up_error, fingerprint)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare business insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range report.SortedRecords() {
		phonesJSON, err := json.Marshal(rec.Phones)
		if err != nil {
			return fmt.Errorf("failed to serialize phones: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID,
			i,
			fromPtr(rec.Name),
			fromPtr(rec.Industry),
			fromPtr(rec.Offer),
			fromPtr(rec.Website),
			string(phonesJSON),
			string(rec.Status),
			nullString(rec.FollowUpError),
			rec.Fingerprint(),
		); err != nil {
			return fmt.Errorf("failed to save business %q: %w", rec.NameOrEmpty(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl run: %w", err)
	}
	return nil
}

// ListSeeds returns every seed URL with at least one stored run.
func (cdb *CrawlDB) ListSeeds(ctx context.Context) ([]string, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT DISTINCT seed_url FROM crawl_runs ORDER BY seed_url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

// GetRunHistory returns the runs of seedURL, newest first.
func (cdb *CrawlDB) GetRunHistory(ctx context.Context, seedURL string) ([]RunMetadata, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, seed_url, started_at, finished_at, stats_json, timed_out, error
	FROM crawl_runs
	WHERE seed_url = ?
	ORDER BY started_at DESC
	`, seedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get run history: %w", err)
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var (
			meta              RunMetadata
			started, finished string
			statsJSON         string
			runErr            sql.NullString
		)
		if err := rows.Scan(&meta.RunID, &meta.SeedURL, &started, &finished, &statsJSON, &meta.TimedOut, &runErr); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		meta.StartedAt = parseTimestamp(started)
		meta.FinishedAt = parseTimestamp(finished)
		meta.Error = runErr.String
		if err := json.Unmarshal([]byte(statsJSON), &meta.Stats); err != nil {
			meta.Stats = model.CrawlStats{}
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// GetRunRecords returns the records stored for runID in emission order
// as saved.
func (cdb *CrawlDB) GetRunRecords(ctx context.Context, runID string) ([]model.BusinessRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT name, industry, offer, website, phones_json, status, follow_up_error
	FROM businesses
	WHERE run_id = ?
	ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run records: %w", err)
	}
	defer rows.Close()

	var records []model.BusinessRecord
	for rows.Next() {
		var (
			name, industry, offer, website sql.NullString
			phonesJSON, status             string
			followUpErr                    sql.NullString
		)
		if err := rows.Scan(&name, &industry, &offer, &website, &phonesJSON, &status, &followUpErr); err != nil {
			return nil, fmt.Errorf("failed to scan business: %w", err)
		}

		rec := model.BusinessRecord{
			Name:          toPtr(name),
			Industry:      toPtr(industry),
			Offer:         toPtr(offer),
			Website:       toPtr(website),
			Status:        model.FollowUpStatus(status),
			FollowUpError: followUpErr.String,
		}
		if err := json.Unmarshal([]byte(phonesJSON), &rec.Phones); err != nil {
			return nil, fmt.Errorf("failed to parse phones of %q: %w", rec.NameOrEmpty(), err)
		}
		if rec.Phones == nil {
			rec.Phones = model.NewPhoneSet()
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetCrawlReport loads a stored run with its records.
// It returns nil, nil if the run does not exist.
func (cdb *CrawlDB) GetCrawlReport(ctx context.Context, runID string) (*model.CrawlReport, error) {
	var (
		started, finished, statsJSON string
		runErr                       sql.NullString
	)
	report := &model.CrawlReport{RunID: runID}
	err := cdb.db.QueryRowContext(ctx, `
	SELECT seed_url, started_at, finished_at, stats_json, timed_out, error
	FROM crawl_runs WHERE id = ?
	`, runID).Scan(&report.SeedURL, &started, &finished, &statsJSON, &report.TimedOut, &runErr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}

	report.StartedAt = parseTimestamp(started)
	report.FinishedAt = parseTimestamp(finished)
	report.ErrorMessage = runErr.String
	if err := json.Unmarshal([]byte(statsJSON), &report.Stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats: %w", err)
	}

	records, err := cdb.GetRunRecords(ctx, runID)
	if err != nil {
		return nil, err
	}
	report.Records = records
	return report, nil
}

// LatestTwoRuns returns the newest complete run of seedURL and the complete
// run before it. Partial runs are skipped so that businesses a cancelled
// crawl never reached do not show up as removed. Either may be nil when
// fewer complete runs are stored.
func (cdb *CrawlDB) LatestTwoRuns(ctx context.Context, seedURL string) (current, previous *model.CrawlReport, err error) {
	runs, err := cdb.GetRunHistory(ctx, seedURL)
	if err != nil {
		return nil, nil, err
	}

	found := make([]*model.CrawlReport, 0, 2)
	for _, run := range runs {
		if !run.Complete() {
			continue
		}
		report, err := cdb.GetCrawlReport(ctx, run.RunID)
		if err != nil {
			return nil, nil, err
		}
		found = append(found, report)
		if len(found) == 2 {
			break
		}
	}
	if len(found) > 0 {
		current = found[0]
	}
	if len(found) > 1 {
		previous = found[1]
	}
	return current, previous, nil
}

// DeleteRun removes a run and its records.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, runID string) error {
	if _, err := cdb.db.ExecContext(ctx, `DELETE FROM crawl_runs WHERE id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func fromPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func toPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// formatTimestamp stores times in UTC with nanoseconds so that text
// ordering matches time ordering.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000000000Z", // formatTimestamp
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
