package memory

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region kinds
// Kind is the memory entry type for one transcript turn.
type Kind string

const (
	KindUserInput       Kind = "USER_INPUT"
	KindAssistantOutput Kind = "ASSISTANT_OUTPUT"
	KindStateContext    Kind = "STATE_CONTEXT"
	KindToolResult      Kind = "TOOL_RESULT"
	KindReasoningChain  Kind = "REASONING_CHAIN"
)

// #endregion kinds

// #region types

// Session identifies one continuous conversation. Never hard-deleted;
// expiry is time- and flag-based.
type Session struct {
	ID               string
	CreatedAt        time.Time
	ExpiresAt        time.Time
	LastActivityAt   time.Time
	InteractionCount int
	Active           bool
}

// Entry is one turn of session transcript. Append-only: no update or
// delete operation exists on this store.
type Entry struct {
	SessionID    string    `json:"sessionId"`
	Seq          int       `json:"seq"`
	Kind         Kind      `json:"kind"`
	Content      string    `json:"content"`
	SnapshotHash string    `json:"snapshotHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// #endregion types

// #region store
// Store manages sessions and their append-only transcripts.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// DefaultTTL is the fixed session lifetime from creation.
const DefaultTTL = 24 * time.Hour

// NewStore creates a session memory store over the shared database.
func NewStore(db *sql.DB, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl}
}

// #endregion store

// #region resolve
// Resolve returns the active, unexpired session for id, bumping its
// last-activity time and interaction count. A missing, expired, or
// deactivated id yields a fresh session. This is the only place a
// session is created.
func (s *Store) Resolve(id string) (Session, error) {
	now := time.Now().UTC()

	if id != "" {
		sess, err := s.get(id)
		if err == nil && sess.Active && now.Before(sess.ExpiresAt) {
			sess.LastActivityAt = now
			sess.InteractionCount++
			_, err = s.db.Exec(
				`UPDATE sessions SET last_activity_at = ?, interaction_count = ? WHERE session_id = ?`,
				now.Format(time.RFC3339Nano), sess.InteractionCount, sess.ID,
			)
			if err != nil {
				return Session{}, fmt.Errorf("touch session: %w", err)
			}
			return sess, nil
		}
		if err != nil && err != sql.ErrNoRows {
			return Session{}, fmt.Errorf("resolve session: %w", err)
		}
	}

	sess := Session{
		ID:               uuid.New().String(),
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.ttl),
		LastActivityAt:   now,
		InteractionCount: 1,
		Active:           true,
	}
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, created_at, expires_at, last_activity_at, interaction_count, active)
		 VALUES (?, ?, ?, ?, ?, 1)`,
		sess.ID, now.Format(time.RFC3339Nano), sess.ExpiresAt.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano), sess.InteractionCount,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Store) get(id string) (Session, error) {
	var sess Session
	var createdStr, expiresStr, activityStr string
	var active int

	err := s.db.QueryRow(
		`SELECT session_id, created_at, expires_at, last_activity_at, interaction_count, active
		 FROM sessions WHERE session_id = ?`, id,
	).Scan(&sess.ID, &createdStr, &expiresStr, &activityStr, &sess.InteractionCount, &active)
	if err != nil {
		return Session{}, err
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	sess.ExpiresAt, _ = time.Parse(time.RFC3339Nano, expiresStr)
	sess.LastActivityAt, _ = time.Parse(time.RFC3339Nano, activityStr)
	sess.Active = active == 1
	return sess, nil
}

// #endregion resolve

// #region append
// Append writes a new entry at the session's next sequence number.
// The max-read and insert share one transaction so concurrent writers on
// the same session serialize instead of duplicating sequence numbers.
func (s *Store) Append(sessionID string, kind Kind, content, snapshotHash string) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	err = tx.QueryRow(
		`SELECT MAX(seq) FROM memory_entries WHERE session_id = ?`, sessionID,
	).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("read max seq: %w", err)
	}
	seq := int(maxSeq.Int64) + 1

	_, err = tx.Exec(
		`INSERT INTO memory_entries (session_id, seq, kind, content, snapshot_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(kind), content, nullIfEmpty(snapshotHash),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("append entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return seq, nil
}

// #endregion append

// #region load
// Load returns the most recent limit entries in chronological order.
// Bounding the load keeps prompt size and cost predictable.
func (s *Store) Load(sessionID string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, kind, content, snapshot_hash, created_at
		 FROM (SELECT * FROM memory_entries WHERE session_id = ? ORDER BY seq DESC LIMIT ?)
		 ORDER BY seq ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var hash sql.NullString
		var createdStr string
		if err := rows.Scan(&e.SessionID, &e.Seq, &e.Kind, &e.Content, &hash, &createdStr); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.SnapshotHash = hash.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion load

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
