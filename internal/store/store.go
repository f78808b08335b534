// Package store persists completed analyses in a local SQLite database so
// past runs can be listed and re-read.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"failsolver/internal/pipeline"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no analysis exists for the requested id.
var ErrNotFound = errors.New("analysis not found")

// Analysis is one persisted pipeline run.
type Analysis struct {
	ID              int64
	TestName        string
	ReportPaths     []string
	RepoPath        string
	Status          string
	Result          string
	Total           int
	Failed          int
	Errored         int
	Skipped         int
	BuildSystem     string
	Consistent      bool
	Reproducible    bool
	RootCause       string
	Confidence      float64
	Recommendations []string
	Document        string
	CreatedAt       string
}

// FromState flattens a terminal pipeline state into a storable record.
func FromState(s pipeline.State) *Analysis {
	a := &Analysis{
		TestName:    s.TestName,
		ReportPaths: s.ReportPaths,
		RepoPath:    s.RepoPath,
		Status:      string(s.Status),
		BuildSystem: s.BuildSystem,
		Document:    s.Document,
	}
	if m := s.Merged; m != nil {
		a.Result = string(m.Result)
		a.Total = m.Summary.Total
		a.Failed = m.Summary.Failed
		a.Errored = m.Summary.Errored
		a.Skipped = m.Summary.Skipped
	}
	if c := s.Comparison; c != nil {
		a.Consistent = c.Consistent
		a.Reproducible = c.Reproducible
	}
	if an := s.Analysis; an != nil {
		a.RootCause = an.RootCause
		a.Confidence = an.Confidence
		a.Recommendations = an.Recommendations
	}
	return a
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .failsolver) if it does not exist.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableCount == 0 {
		if _, err := s.db.Exec(schemaV1); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersionV1); err != nil {
			return fmt.Errorf("set schema version: %w", err)
		}
		return nil
	}

	var v int
	if err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersionV1 {
		return fmt.Errorf("unknown schema version %d", v)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the analysis and returns its id.
func (s *Store) Save(a *Analysis) (int64, error) {
	paths, err := json.Marshal(a.ReportPaths)
	if err != nil {
		return 0, fmt.Errorf("encode report paths: %w", err)
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return 0, fmt.Errorf("encode recommendations: %w", err)
	}
	res, err := s.db.Exec(`
		INSERT INTO analyses (
			test_name, report_paths, repo_path, status, result,
			total, failed, errored, skipped, build_system,
			consistent, reproducible, root_cause, confidence,
			recommendations, document, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.TestName, string(paths), a.RepoPath, a.Status, a.Result,
		a.Total, a.Failed, a.Errored, a.Skipped, a.BuildSystem,
		boolInt(a.Consistent), boolInt(a.Reproducible), a.RootCause, a.Confidence,
		string(recs), a.Document, nowUTC())
	if err != nil {
		return 0, fmt.Errorf("insert analysis: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read insert id: %w", err)
	}
	a.ID = id
	return id, nil
}

const analysisColumns = `id, test_name, report_paths, repo_path, status, result,
	total, failed, errored, skipped, build_system, consistent, reproducible,
	root_cause, confidence, recommendations, document, created_at`

// Get returns one analysis by id, or ErrNotFound.
func (s *Store) Get(id int64) (*Analysis, error) {
	row := s.db.QueryRow("SELECT "+analysisColumns+" FROM analyses WHERE id = ?", id)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get analysis %d: %w", id, err)
	}
	return a, nil
}

// List returns the most recent analyses, newest first. limit <= 0 means a
// default page of 20.
func (s *Store) List(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT "+analysisColumns+" FROM analyses ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	var a Analysis
	var testName, result, buildSystem, rootCause, document sql.NullString
	var paths, recs sql.NullString
	var consistent, reproducible int
	var confidence sql.NullFloat64

	err := row.Scan(&a.ID, &testName, &paths, &a.RepoPath, &a.Status, &result,
		&a.Total, &a.Failed, &a.Errored, &a.Skipped, &buildSystem,
		&consistent, &reproducible, &rootCause, &confidence,
		&recs, &document, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.TestName = nullStr(testName)
	a.Result = nullStr(result)
	a.BuildSystem = nullStr(buildSystem)
	a.RootCause = nullStr(rootCause)
	a.Document = nullStr(document)
	a.Confidence = nullFloat(confidence)
	a.Consistent = consistent != 0
	a.Reproducible = reproducible != 0
	if paths.Valid && paths.String != "" {
		if err := json.Unmarshal([]byte(paths.String), &a.ReportPaths); err != nil {
			return nil, fmt.Errorf("decode report paths: %w", err)
		}
	}
	if recs.Valid && recs.String != "" {
		if err := json.Unmarshal([]byte(recs.String), &a.Recommendations); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	return &a, nil
}

// nowUTC returns the current UTC time as an ISO 8601 string.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// nullStr converts a sql.NullString to a plain string (empty if null).
func nullStr(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullFloat converts a sql.NullFloat64 to a plain float64 (0 if null).
func nullFloat(nf sql.NullFloat64) float64 {
	if nf.Valid {
		return nf.Float64
	}
	return 0
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
