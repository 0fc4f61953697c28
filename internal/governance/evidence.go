package governance

import (
	"database/sql"
	"fmt"
	"time"
)

// #region counter-names
// Counter names the cumulative evidence aggregates.
type Counter string

const (
	CounterStateBindingSuccess Counter = "state_binding_success"
	CounterStateBindingFailure Counter = "state_binding_failure"
	CounterChainsGenerated     Counter = "chains_generated"
	CounterClassifications     Counter = "classifications"
	CounterBudgetAdherent      Counter = "budget_adherent"
)

// #endregion counter-names

// #region accumulator
// EvidenceAccumulator maintains process-wide additive counters plus a
// daily-bucketed parallel table. Increments are SQL upserts so concurrent
// writers (and multiple gateway instances) never lose updates; counters
// are never held in process memory across requests.
type EvidenceAccumulator struct {
	db *sql.DB
}

// NewEvidenceAccumulator creates an accumulator over the shared database.
func NewEvidenceAccumulator(db *sql.DB) *EvidenceAccumulator {
	return &EvidenceAccumulator{db: db}
}

// #endregion accumulator

// #region increment
// Increment adds delta to the cumulative counter and to today's bucket.
// Counters only ever grow; a new daily bucket is the only reset.
func (a *EvidenceAccumulator) Increment(name Counter, delta int) error {
	if delta <= 0 {
		return nil
	}
	day := time.Now().UTC().Format("2006-01-02")

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO evidence_counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = value + excluded.value`,
		string(name), delta,
	)
	if err != nil {
		return fmt.Errorf("increment counter %s: %w", name, err)
	}

	_, err = tx.Exec(
		`INSERT INTO evidence_daily (day, name, value) VALUES (?, ?, ?)
		 ON CONFLICT(day, name) DO UPDATE SET value = value + excluded.value`,
		day, string(name), delta,
	)
	if err != nil {
		return fmt.Errorf("increment daily %s: %w", name, err)
	}

	return tx.Commit()
}

// #endregion increment

// #region totals
// Totals returns all cumulative counter values.
func (a *EvidenceAccumulator) Totals() (map[Counter]int, error) {
	rows, err := a.db.Query(`SELECT name, value FROM evidence_counters`)
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	defer rows.Close()

	totals := make(map[Counter]int)
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		totals[Counter(name)] = value
	}
	return totals, rows.Err()
}

// Today returns the counter values for the current daily bucket.
func (a *EvidenceAccumulator) Today() (map[Counter]int, error) {
	day := time.Now().UTC().Format("2006-01-02")
	rows, err := a.db.Query(`SELECT name, value FROM evidence_daily WHERE day = ?`, day)
	if err != nil {
		return nil, fmt.Errorf("read daily counters: %w", err)
	}
	defer rows.Close()

	totals := make(map[Counter]int)
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan daily counter: %w", err)
		}
		totals[Counter(name)] = value
	}
	return totals, rows.Err()
}

// #endregion totals
