package statevec

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// #region errors
// ErrStateUnavailable means the state source could not produce a complete
// fact tuple. The pipeline fails closed on it: there is no GREEN default.
var ErrStateUnavailable = errors.New("state source unavailable")

// #endregion errors

// #region snapshot
// Snapshot is an immutable capture of the system facts one request is bound to.
// Downstream stages reference it by Hash only.
type Snapshot struct {
	SnapshotID       string
	Hash             string
	Defcon           string
	RegimeLabel      string
	RegimeConfidence float64
	StrategyHash     string
	Atomic           bool
	CapturedAt       time.Time
}

// #endregion snapshot

// #region injector
// Injector reads live system facts and persists a hashed snapshot per request.
type Injector struct {
	db *sql.DB
}

// NewInjector creates an Injector over the shared state database.
func NewInjector(db *sql.DB) *Injector {
	return &Injector{db: db}
}

// #endregion injector

// #region capture
// Capture reads defcon, regime, and strategy inside one read transaction,
// hashes the canonical tuple, and persists the snapshot before returning.
// Missing rows are ErrStateUnavailable, never defaults.
func (i *Injector) Capture() (Snapshot, error) {
	now := time.Now().UTC()

	tx, err := i.db.Begin()
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := Snapshot{
		SnapshotID: uuid.New().String(),
		Atomic:     true,
		CapturedAt: now,
	}

	err = tx.QueryRow(`SELECT level FROM defcon_level WHERE id = 1`).Scan(&snap.Defcon)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read defcon: %v", ErrStateUnavailable, err)
	}

	err = tx.QueryRow(
		`SELECT label, confidence FROM market_regime ORDER BY id DESC LIMIT 1`,
	).Scan(&snap.RegimeLabel, &snap.RegimeConfidence)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read regime: %v", ErrStateUnavailable, err)
	}

	err = tx.QueryRow(`SELECT strategy_hash FROM active_strategy WHERE id = 1`).Scan(&snap.StrategyHash)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: read strategy: %v", ErrStateUnavailable, err)
	}

	snap.Hash = HashTuple(snap.Defcon, snap.RegimeLabel, snap.StrategyHash, snap.CapturedAt)

	atomic := 0
	if snap.Atomic {
		atomic = 1
	}
	_, err = tx.Exec(
		`INSERT INTO state_snapshots
		 (snapshot_id, content_hash, defcon, regime_label, regime_confidence, strategy_hash, atomic, captured_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SnapshotID, snap.Hash, snap.Defcon, snap.RegimeLabel, snap.RegimeConfidence,
		snap.StrategyHash, atomic, snap.CapturedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("persist snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit: %w", err)
	}

	return snap, nil
}

// #endregion capture

// #region get-snapshot
// GetSnapshot retrieves a persisted snapshot by content hash.
func (i *Injector) GetSnapshot(hash string) (Snapshot, error) {
	var snap Snapshot
	var atomic int
	var capturedStr string

	err := i.db.QueryRow(
		`SELECT snapshot_id, content_hash, defcon, regime_label, regime_confidence, strategy_hash, atomic, captured_at
		 FROM state_snapshots WHERE content_hash = ?`, hash,
	).Scan(&snap.SnapshotID, &snap.Hash, &snap.Defcon, &snap.RegimeLabel,
		&snap.RegimeConfidence, &snap.StrategyHash, &atomic, &capturedStr)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot %s: %w", hash, err)
	}
	snap.Atomic = atomic == 1
	snap.CapturedAt, _ = time.Parse(time.RFC3339Nano, capturedStr)
	return snap, nil
}

// #endregion get-snapshot

// #region hash
// HashTuple computes the canonical content hash over the fact tuple.
// The canonical form is a fixed field order with a fixed timestamp format,
// so identical tuples always hash identically.
func HashTuple(defcon, regimeLabel, strategyHash string, capturedAt time.Time) string {
	canonical := fmt.Sprintf("defcon=%s|regime=%s|strategy=%s|at=%s",
		defcon, regimeLabel, strategyHash, capturedAt.Format(time.RFC3339Nano))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// #endregion hash
