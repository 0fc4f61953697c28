package governance

import (
	"database/sql"
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

// #endregion helpers

func TestRecordPersistsInteraction(t *testing.T) {
	db := setupDB(t)
	r := NewRecorder(db)

	rec := InteractionRecord{
		InteractionID: "int-1",
		SessionID:     "sess-1",
		SnapshotHash:  "hash-1",
		Query:         "current position",
		Response:      "flat",
		Status:        StatusSuccess,
		TokensUsed:    42,
		CostUSD:       0.00084,
		LatencyMs:     120,
	}
	if err := r.Record(rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	var (
		status string
		tokens int
		cost   float64
		hash   sql.NullString
	)
	err := db.QueryRow(
		`SELECT status, tokens_used, cost_usd, snapshot_hash FROM interactions WHERE interaction_id = ?`,
		"int-1",
	).Scan(&status, &tokens, &cost, &hash)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if status != string(StatusSuccess) || tokens != 42 || cost != 0.00084 {
		t.Fatalf("row drifted: status=%s tokens=%d cost=%f", status, tokens, cost)
	}
	if !hash.Valid || hash.String != "hash-1" {
		t.Fatalf("snapshot hash not persisted: %+v", hash)
	}
}

func TestRecordBlockedWithoutSnapshot(t *testing.T) {
	db := setupDB(t)
	r := NewRecorder(db)

	rec := InteractionRecord{
		InteractionID: "int-2",
		SessionID:     "sess-1",
		Query:         "anything",
		Status:        StatusGateBlocked,
		Error:         "defcon RED",
		CreatedAt:     time.Now().UTC(),
	}
	if err := r.Record(rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	var hash, response sql.NullString
	err := db.QueryRow(
		`SELECT snapshot_hash, response FROM interactions WHERE interaction_id = ?`, "int-2",
	).Scan(&hash, &response)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if hash.Valid || response.Valid {
		t.Fatalf("blocked record should carry NULL hash and response: %+v %+v", hash, response)
	}
}

func TestIncrementIsAdditive(t *testing.T) {
	a := NewEvidenceAccumulator(setupDB(t))

	for i := 0; i < 3; i++ {
		if err := a.Increment(CounterChainsGenerated, 1); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := a.Increment(CounterChainsGenerated, 2); err != nil {
		t.Fatalf("increment: %v", err)
	}

	totals, err := a.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals[CounterChainsGenerated] != 5 {
		t.Fatalf("expected 5, got %d", totals[CounterChainsGenerated])
	}
}

func TestIncrementIgnoresNonPositiveDelta(t *testing.T) {
	a := NewEvidenceAccumulator(setupDB(t))

	if err := a.Increment(CounterClassifications, 0); err != nil {
		t.Fatalf("increment zero: %v", err)
	}
	if err := a.Increment(CounterClassifications, -3); err != nil {
		t.Fatalf("increment negative: %v", err)
	}

	totals, err := a.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if _, ok := totals[CounterClassifications]; ok {
		t.Fatal("non-positive deltas must not create a counter row")
	}
}

func TestDailyBucketTracksCumulative(t *testing.T) {
	a := NewEvidenceAccumulator(setupDB(t))

	if err := a.Increment(CounterStateBindingSuccess, 4); err != nil {
		t.Fatalf("increment: %v", err)
	}

	today, err := a.Today()
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today[CounterStateBindingSuccess] != 4 {
		t.Fatalf("expected today's bucket 4, got %d", today[CounterStateBindingSuccess])
	}

	totals, err := a.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals[CounterStateBindingSuccess] != today[CounterStateBindingSuccess] {
		t.Fatalf("single-day totals should match bucket: %d vs %d",
			totals[CounterStateBindingSuccess], today[CounterStateBindingSuccess])
	}
}

func TestCountersIndependent(t *testing.T) {
	a := NewEvidenceAccumulator(setupDB(t))

	if err := a.Increment(CounterStateBindingSuccess, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := a.Increment(CounterStateBindingFailure, 2); err != nil {
		t.Fatalf("increment: %v", err)
	}

	totals, err := a.Totals()
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals[CounterStateBindingSuccess] != 1 || totals[CounterStateBindingFailure] != 2 {
		t.Fatalf("counters bled into each other: %+v", totals)
	}
}
