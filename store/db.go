// Package store persists generation jobs and their per-record outcomes in
// SQLite so past invocations can be listed and inspected.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a job ID is unknown.
var ErrNotFound = errors.New("job not found")

// Record statuses.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Job is one pipeline invocation.
type Job struct {
	ID        string      `json:"id"`
	Mode      string      `json:"mode"`
	Source    string      `json:"source"`
	Target    string      `json:"target"`
	Header    string      `json:"header,omitempty"`
	Format    string      `json:"format"`
	Size      int         `json:"size"`
	Code      string      `json:"code"`
	Error     string      `json:"error,omitempty"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	CreatedAt int64       `json:"created_at"` // unix milliseconds
	Records   []JobRecord `json:"records,omitempty"`
}

// JobRecord is the outcome of one archive line.
type JobRecord struct {
	Line     int    `json:"line"`
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Code     string `json:"code"`
	Error    string `json:"error,omitempty"`
}

// JobStore manages SQLite storage for generation jobs.
type JobStore struct {
	db *sql.DB
}

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    source TEXT NOT NULL DEFAULT '',
    target TEXT NOT NULL DEFAULT '',
    header TEXT NOT NULL DEFAULT '',
    format TEXT NOT NULL,
    size INTEGER NOT NULL,
    code TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    succeeded INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);
`

const createJobRecordsTable = `
CREATE TABLE IF NOT EXISTS job_records (
    job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
    line INTEGER NOT NULL,
    text TEXT NOT NULL DEFAULT '',
    filename TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    code TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (job_id, line)
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

// NewJobStore opens (or creates) the SQLite database at dbPath and
// initialises the schema.
func NewJobStore(dbPath string) (*JobStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range []string{
		createJobsTable,
		createJobRecordsTable,
		createIndexes,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec schema statement: %w", err)
		}
	}

	return &JobStore{db: db}, nil
}

// SaveJob inserts a job and its records in a single transaction.
func (s *JobStore) SaveJob(job *Job) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save job: %w", err)
	}
	defer tx.Rollback()

	const insertJob = `
		INSERT INTO jobs
			(id, mode, source, target, header, format, size, code, error, succeeded, failed, skipped, created_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.Exec(insertJob,
		job.ID,
		job.Mode,
		job.Source,
		job.Target,
		job.Header,
		job.Format,
		job.Size,
		job.Code,
		job.Error,
		job.Succeeded,
		job.Failed,
		job.Skipped,
		job.CreatedAt,
	); err != nil {
		return fmt.Errorf("save job: %w", err)
	}

	if len(job.Records) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO job_records (job_id, line, text, filename, status, code, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare job records: %w", err)
		}
		defer stmt.Close()

		for _, r := range job.Records {
			if _, err := stmt.Exec(job.ID, r.Line, r.Text, r.Filename, r.Status, r.Code, r.Error); err != nil {
				return fmt.Errorf("save job record line %d: %w", r.Line, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save job: %w", err)
	}
	return nil
}

// GetJobs returns jobs newest first, without their records.
func (s *JobStore) GetJobs(limit, offset int) ([]Job, error) {
	const query = `
		SELECT id, mode, source, target, header, format, size, code, error,
		       succeeded, failed, skipped, created_at
		FROM jobs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := scanJob(rows, &j); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}
	return jobs, nil
}

// GetJob returns a single job with its records ordered by source line.
func (s *JobStore) GetJob(id string) (*Job, error) {
	const query = `
		SELECT id, mode, source, target, header, format, size, code, error,
		       succeeded, failed, skipped, created_at
		FROM jobs
		WHERE id = ?
	`

	var j Job
	if err := scanJob(s.db.QueryRow(query, id), &j); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT line, text, filename, status, code, error
		FROM job_records
		WHERE job_id = ?
		ORDER BY line
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get job records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r JobRecord
		if err := rows.Scan(&r.Line, &r.Text, &r.Filename, &r.Status, &r.Code, &r.Error); err != nil {
			return nil, fmt.Errorf("scan job record row: %w", err)
		}
		j.Records = append(j.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job record rows: %w", err)
	}
	return &j, nil
}

// Close closes the underlying database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}

// --- helpers ----------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner, j *Job) error {
	err := row.Scan(
		&j.ID, &j.Mode, &j.Source, &j.Target, &j.Header, &j.Format, &j.Size,
		&j.Code, &j.Error, &j.Succeeded, &j.Failed, &j.Skipped, &j.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err != nil {
		return fmt.Errorf("scan job row: %w", err)
	}
	return nil
}
