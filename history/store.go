// ABOUTME: SQLite-backed history of completed analysis reports, keyed by ULID.
// ABOUTME: Report bodies are stored as zstd-compressed JSON; summaries are queryable without decoding them.
package history

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2389-research/accessdoc/analysis"
	"github.com/2389-research/accessdoc/report"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when no entry matches a lookup.
var ErrNotFound = errors.New("history entry not found")

// ErrAmbiguous is returned when an ID prefix matches more than one entry.
var ErrAmbiguous = errors.New("history ID prefix is ambiguous")

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Summary is one row of a history listing.
type Summary struct {
	ID         ulid.ULID
	Target     string
	CreatedAt  time.Time
	Average    int
	Categories int
}

// Entry is a stored report with its metadata.
type Entry struct {
	Summary
	Report *analysis.Report
}

// Store persists reports in a SQLite database.
type Store struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			created_at TEXT NOT NULL,
			average INTEGER NOT NULL,
			categories INTEGER NOT NULL,
			body BLOB NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_target ON reports(target, created_at);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Store{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database and codec resources.
func (s *Store) Close() error {
	s.dec.Close()
	_ = s.enc.Close()
	return s.db.Close()
}

// Save records rep for target at the given time and returns the new entry.
func (s *Store) Save(target string, rep *analysis.Report, at time.Time) (*Entry, error) {
	if rep == nil {
		return nil, errors.New("save: nil report")
	}
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}

	at = at.UTC()
	entry := &Entry{
		Summary: Summary{
			ID:         ulid.MustNew(ulid.Timestamp(at), rand.Reader),
			Target:     target,
			CreatedAt:  at,
			Average:    report.Average(rep.Scores),
			Categories: len(rep.Scores),
		},
		Report: rep,
	}

	_, err = s.db.Exec(
		`INSERT INTO reports (id, target, created_at, average, categories, body)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID.String(),
		entry.Target,
		entry.CreatedAt.Format(timeLayout),
		entry.Average,
		entry.Categories,
		s.enc.EncodeAll(raw, nil),
	)
	if err != nil {
		return nil, fmt.Errorf("insert report: %w", err)
	}
	return entry, nil
}

// List returns summaries newest first. A non-empty target restricts the
// listing to that URL; limit <= 0 means no limit.
func (s *Store) List(target string, limit int) ([]Summary, error) {
	query := `SELECT id, target, created_at, average, categories FROM reports`
	var args []any
	if target != "" {
		query += ` WHERE target = ?`
		args = append(args, target)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Get loads an entry by full ID or by a unique ID prefix.
func (s *Store) Get(id string) (*Entry, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(
		`SELECT id, target, created_at, average, categories, body FROM reports
		 WHERE id >= ? AND id < ? ORDER BY id LIMIT 2`,
		id, id+"\x7f",
	)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	defer rows.Close()

	var found []*Entry
	for rows.Next() {
		e, err := s.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// LatestFor returns the newest entry for target.
func (s *Store) LatestFor(target string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, target, created_at, average, categories, body FROM reports
		 WHERE target = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		target,
	)
	e, err := s.scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	return e, err
}

// Previous returns the entry for the same target saved immediately before e.
func (s *Store) Previous(e *Entry) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT id, target, created_at, average, categories, body FROM reports
		 WHERE target = ? AND (created_at < ? OR (created_at = ? AND id < ?))
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		e.Target, e.CreatedAt.Format(timeLayout), e.CreatedAt.Format(timeLayout), e.ID.String(),
	)
	prev, err := s.scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no earlier report for %s", ErrNotFound, e.Target)
	}
	return prev, err
}

// Delete removes the entry with the given full ID.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM reports WHERE id = ?`, strings.ToUpper(id))
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (Summary, error) {
	var sum Summary
	var id, created string
	if err := sc.Scan(&id, &sum.Target, &created, &sum.Average, &sum.Categories); err != nil {
		return Summary{}, fmt.Errorf("scan report: %w", err)
	}
	return finishSummary(sum, id, created)
}

func (s *Store) scanEntry(sc scanner) (*Entry, error) {
	var e Entry
	var id, created string
	var body []byte
	if err := sc.Scan(&id, &e.Target, &created, &e.Average, &e.Categories, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan report: %w", err)
	}

	sum, err := finishSummary(e.Summary, id, created)
	if err != nil {
		return nil, err
	}
	e.Summary = sum

	raw, err := s.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress report %s: %w", id, err)
	}
	var rep analysis.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	e.Report = &rep
	return &e, nil
}

func finishSummary(sum Summary, id, created string) (Summary, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return Summary{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	at, err := time.Parse(timeLayout, created)
	if err != nil {
		return Summary{}, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	sum.ID = parsed
	sum.CreatedAt = at
	return sum, nil
}
