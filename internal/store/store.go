// Package store persists claims, evidence snapshots, verdicts, clusters,
// alerts and reader feedback in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// timeLayout is fixed-width so stored timestamps sort lexicographically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS claims (
	id           TEXT PRIMARY KEY,
	claim_text   TEXT NOT NULL,
	raw_text     TEXT NOT NULL,
	source       TEXT NOT NULL,
	source_type  TEXT NOT NULL,
	is_claim     INTEGER NOT NULL,
	entities     TEXT NOT NULL,
	claim_type   TEXT NOT NULL,
	confidence   REAL NOT NULL,
	embedding    BLOB,
	cluster_id   TEXT,
	verdict_id   TEXT,
	status       TEXT NOT NULL,
	language     TEXT NOT NULL,
	metadata     TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_claims_created ON claims(created_at);
CREATE INDEX IF NOT EXISTS idx_claims_status ON claims(status, updated_at);

CREATE TABLE IF NOT EXISTS evidence (
	id                  TEXT PRIMARY KEY,
	claim_id            TEXT NOT NULL,
	sources             TEXT NOT NULL,
	total_sources_found INTEGER NOT NULL,
	search_queries      TEXT NOT NULL,
	retrieval_method    TEXT NOT NULL,
	created_at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evidence_claim ON evidence(claim_id, created_at);

CREATE TABLE IF NOT EXISTS verdicts (
	id                      TEXT PRIMARY KEY,
	claim_id                TEXT NOT NULL,
	verdict                 TEXT NOT NULL,
	confidence              REAL NOT NULL,
	reasoning               TEXT NOT NULL,
	sources                 TEXT NOT NULL,
	explain_like_12         TEXT NOT NULL,
	harm_score              INTEGER NOT NULL,
	recommended_action      TEXT NOT NULL,
	expert_explanation      TEXT NOT NULL,
	tags                    TEXT NOT NULL,
	model_used              TEXT NOT NULL,
	processing_time_seconds REAL NOT NULL,
	human_reviewed          INTEGER NOT NULL DEFAULT 0,
	reviewer_id             TEXT NOT NULL DEFAULT '',
	reviewer_notes          TEXT NOT NULL DEFAULT '',
	is_published            INTEGER NOT NULL DEFAULT 0,
	created_at              TEXT NOT NULL,
	updated_at              TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verdicts_claim ON verdicts(claim_id, created_at);

CREATE TABLE IF NOT EXISTS clusters (
	cluster_id           TEXT PRIMARY KEY,
	label                TEXT NOT NULL,
	claim_ids            TEXT NOT NULL,
	representative_claim TEXT NOT NULL,
	claim_count          INTEGER NOT NULL,
	is_trending          INTEGER NOT NULL,
	trend_score          REAL NOT NULL,
	category             TEXT NOT NULL,
	created_at           TEXT NOT NULL,
	last_updated         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clusters_trending ON clusters(is_trending, trend_score);

CREATE TABLE IF NOT EXISTS alerts (
	id                TEXT PRIMARY KEY,
	alert_type        TEXT NOT NULL,
	title             TEXT NOT NULL,
	description       TEXT NOT NULL,
	severity          TEXT NOT NULL,
	related_claim_ids TEXT NOT NULL,
	cluster_id        TEXT,
	is_active         INTEGER NOT NULL,
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_active ON alerts(is_active, created_at);

CREATE TABLE IF NOT EXISTS feedback (
	id               TEXT PRIMARY KEY,
	claim_id         TEXT NOT NULL,
	feedback_type    TEXT NOT NULL,
	content          TEXT NOT NULL,
	user_email       TEXT NOT NULL,
	supporting_links TEXT NOT NULL,
	status           TEXT NOT NULL,
	reviewed_by      TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedback_claim ON feedback(claim_id, created_at);
CREATE INDEX IF NOT EXISTS idx_feedback_status ON feedback(status);
`

// Store is the SQLite-backed persistence layer
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and runs migrations.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, out any) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), out)
}

func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// execOne runs a statement that must touch exactly one row
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
