package governance

import (
	"database/sql"
	"fmt"
	"time"
)

// #region status
// Status is the terminal outcome of one interaction.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusGateBlocked     Status = "gate_blocked"
	StatusFirewallBlocked Status = "firewall_blocked"
	StatusTimeout         Status = "timeout"
	StatusFailed          Status = "failed"
)

// #endregion status

// #region record
// InteractionRecord is one row of the primary audit trail. A model response
// with no interaction record violates the subsystem's core invariant, so
// writing this row is fatal-on-failure for the request.
type InteractionRecord struct {
	InteractionID string
	SessionID     string
	SnapshotHash  string
	Query         string
	Response      string
	Status        Status
	Error         string
	TokensUsed    int
	CostUSD       float64
	LatencyMs     int64
	CreatedAt     time.Time
}

// #endregion record

// #region recorder
// Recorder appends interaction records. Append-only: no update or delete.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over the shared database.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record persists one interaction record.
func (r *Recorder) Record(rec InteractionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO interactions
		 (interaction_id, session_id, snapshot_hash, query, response, status, error,
		  tokens_used, cost_usd, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.InteractionID, rec.SessionID, nullIfEmpty(rec.SnapshotHash),
		rec.Query, nullIfEmpty(rec.Response), string(rec.Status), nullIfEmpty(rec.Error),
		rec.TokensUsed, rec.CostUSD, rec.LatencyMs,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// #endregion recorder

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
