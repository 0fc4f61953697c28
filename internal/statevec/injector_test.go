package statevec

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantops/cortex-gateway/internal/store"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st.DB()
}

func seedFacts(t *testing.T, db *sql.DB, defcon, regime, strategyHash string) {
	t.Helper()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := db.Exec(
		`INSERT INTO defcon_level (id, level, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET level = excluded.level`, defcon, now,
	); err != nil {
		t.Fatalf("seed defcon: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO market_regime (label, confidence, created_at) VALUES (?, 0.8, ?)`, regime, now,
	); err != nil {
		t.Fatalf("seed regime: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO active_strategy (id, strategy_id, strategy_hash, updated_at) VALUES (1, 'momentum-v2', ?, ?)
		 ON CONFLICT(id) DO UPDATE SET strategy_hash = excluded.strategy_hash`, strategyHash, now,
	); err != nil {
		t.Fatalf("seed strategy: %v", err)
	}
}

// #endregion helpers

func TestCaptureHashMatchesPersistedTuple(t *testing.T) {
	db := setupDB(t)
	seedFacts(t, db, "GREEN", "bull_trend", "abc123")
	inj := NewInjector(db)

	snap, err := inj.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	// No drift: the returned hash equals the hash of the exact persisted tuple.
	stored, err := inj.GetSnapshot(snap.Hash)
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	recomputed := HashTuple(stored.Defcon, stored.RegimeLabel, stored.StrategyHash, stored.CapturedAt)
	if recomputed != snap.Hash {
		t.Fatalf("hash drift: returned %s, recomputed %s", snap.Hash, recomputed)
	}
	if stored.Defcon != "GREEN" || stored.RegimeLabel != "bull_trend" || stored.StrategyHash != "abc123" {
		t.Fatalf("persisted fields drifted: %+v", stored)
	}
	if !stored.Atomic {
		t.Error("single-transaction capture should be atomic")
	}
}

func TestCaptureReadsLatestRegime(t *testing.T) {
	db := setupDB(t)
	seedFacts(t, db, "YELLOW", "chop", "h1")
	if _, err := db.Exec(
		`INSERT INTO market_regime (label, confidence, created_at) VALUES ('bear_trend', 0.9, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		t.Fatalf("insert regime: %v", err)
	}
	inj := NewInjector(db)

	snap, err := inj.Capture()
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.RegimeLabel != "bear_trend" {
		t.Fatalf("expected latest regime bear_trend, got %s", snap.RegimeLabel)
	}
}

func TestCaptureFailsClosedOnMissingFacts(t *testing.T) {
	db := setupDB(t)
	inj := NewInjector(db)

	_, err := inj.Capture()
	if err == nil {
		t.Fatal("expected error on empty state source")
	}
	if !errors.Is(err, ErrStateUnavailable) {
		t.Fatalf("expected ErrStateUnavailable, got %v", err)
	}
}

func TestCaptureFailsClosedOnMissingStrategy(t *testing.T) {
	db := setupDB(t)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := db.Exec(`INSERT INTO defcon_level (id, level, updated_at) VALUES (1, 'GREEN', ?)`, now); err != nil {
		t.Fatalf("seed defcon: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO market_regime (label, confidence, created_at) VALUES ('chop', 0.5, ?)`, now); err != nil {
		t.Fatalf("seed regime: %v", err)
	}
	inj := NewInjector(db)

	_, err := inj.Capture()
	if !errors.Is(err, ErrStateUnavailable) {
		t.Fatalf("expected ErrStateUnavailable, got %v", err)
	}
}

func TestHashTupleDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := HashTuple("GREEN", "chop", "h1", at)
	b := HashTuple("GREEN", "chop", "h1", at)
	if a != b {
		t.Fatal("identical tuples should hash identically")
	}

	if HashTuple("YELLOW", "chop", "h1", at) == a {
		t.Fatal("different defcon should change the hash")
	}
	if HashTuple("GREEN", "chop", "h1", at.Add(time.Nanosecond)) == a {
		t.Fatal("different timestamp should change the hash")
	}
}
