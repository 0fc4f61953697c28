package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS defcon_level (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	level       TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS market_regime (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	label       TEXT NOT NULL,
	confidence  REAL NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_strategy (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	strategy_id   TEXT NOT NULL,
	strategy_hash TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS state_snapshots (
	snapshot_id       TEXT PRIMARY KEY,
	content_hash      TEXT NOT NULL,
	defcon            TEXT NOT NULL,
	regime_label      TEXT NOT NULL,
	regime_confidence REAL NOT NULL,
	strategy_hash     TEXT NOT NULL,
	atomic            INTEGER NOT NULL,
	captured_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id        TEXT PRIMARY KEY,
	created_at        TEXT NOT NULL,
	expires_at        TEXT NOT NULL,
	last_activity_at  TEXT NOT NULL,
	interaction_count INTEGER NOT NULL DEFAULT 0,
	active            INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS memory_entries (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	content       TEXT NOT NULL,
	snapshot_hash TEXT,
	created_at    TEXT NOT NULL,
	UNIQUE (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE TABLE IF NOT EXISTS boundary_classifications (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	interaction_id      TEXT NOT NULL,
	classification      TEXT NOT NULL,
	confidence          REAL NOT NULL,
	volatile            INTEGER NOT NULL,
	retrieval_triggered INTEGER NOT NULL,
	rationale           TEXT,
	created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS retrieval_decisions (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	interaction_id     TEXT NOT NULL,
	estimated_tokens   INTEGER NOT NULL,
	estimated_cost_usd REAL NOT NULL,
	scent              REAL NOT NULL,
	within_budget      INTEGER NOT NULL,
	execute            INTEGER NOT NULL,
	termination_reason TEXT NOT NULL,
	created_at         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chain_nodes (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	interaction_id TEXT NOT NULL,
	idx            INTEGER NOT NULL,
	node_type      TEXT NOT NULL,
	content        TEXT NOT NULL,
	rationale      TEXT,
	verification   TEXT NOT NULL,
	search_query   TEXT,
	search_summary TEXT,
	tokens_used    INTEGER,
	cost_usd       REAL,
	created_at     TEXT NOT NULL,
	UNIQUE (interaction_id, idx)
);

CREATE TABLE IF NOT EXISTS interactions (
	interaction_id TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	snapshot_hash  TEXT,
	query          TEXT NOT NULL,
	response       TEXT,
	status         TEXT NOT NULL,
	error          TEXT,
	tokens_used    INTEGER NOT NULL DEFAULT 0,
	cost_usd       REAL NOT NULL DEFAULT 0,
	latency_ms     INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evidence_daily (
	day   TEXT NOT NULL,
	name  TEXT NOT NULL,
	value INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (day, name)
);

CREATE INDEX IF NOT EXISTS idx_memory_entries_session
ON memory_entries(session_id, seq);

CREATE INDEX IF NOT EXISTS idx_interactions_session
ON interactions(session_id, created_at);
`

// #endregion schema

// #region store-struct
// Store owns the SQLite database shared by all pipeline components.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// Open opens a SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by component stores.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region seed
// SeedDefaults writes initial GREEN/unknown state facts if none exist.
// Called only at bootstrap on explicit operator request; requests never
// fall back to these values on read failure.
func (s *Store) SeedDefaults() error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO defcon_level (id, level, updated_at) VALUES (1, 'GREEN', ?)
		 ON CONFLICT(id) DO NOTHING`, now,
	)
	if err != nil {
		return fmt.Errorf("seed defcon: %w", err)
	}

	var regimes int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM market_regime`).Scan(&regimes); err != nil {
		return fmt.Errorf("count regimes: %w", err)
	}
	if regimes == 0 {
		_, err = tx.Exec(
			`INSERT INTO market_regime (label, confidence, created_at) VALUES ('unknown', 0, ?)`, now,
		)
		if err != nil {
			return fmt.Errorf("seed regime: %w", err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO active_strategy (id, strategy_id, strategy_hash, updated_at)
		 VALUES (1, 'none', 'none', ?)
		 ON CONFLICT(id) DO NOTHING`, now,
	)
	if err != nil {
		return fmt.Errorf("seed strategy: %w", err)
	}

	return tx.Commit()
}

// #endregion seed

// #region has-state
// HasStateFacts reports whether the state source tables are populated.
func (s *Store) HasStateFacts() (bool, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM defcon_level WHERE id = 1`).Scan(&n); err != nil {
		return false, fmt.Errorf("check defcon: %w", err)
	}
	return n == 1, nil
}

// #endregion has-state
