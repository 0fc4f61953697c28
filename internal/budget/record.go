package budget

import (
	"database/sql"
	"fmt"
	"time"
)

// #region record
// Record persists a retrieval decision row for the given interaction.
func Record(db *sql.DB, interactionID string, d Decision) error {
	withinBudget, execute := 0, 0
	if d.WithinBudget {
		withinBudget = 1
	}
	if d.Execute {
		execute = 1
	}

	_, err := db.Exec(
		`INSERT INTO retrieval_decisions
		 (interaction_id, estimated_tokens, estimated_cost_usd, scent, within_budget, execute, termination_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		interactionID, d.EstimatedTokens, d.EstimatedCostUSD, d.Scent,
		withinBudget, execute, string(d.TerminationReason),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record retrieval decision: %w", err)
	}
	return nil
}

// #endregion record
