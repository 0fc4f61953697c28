package boundary

import (
	"database/sql"
	"fmt"
	"time"
)

// #region record
// Record persists a classification row for the given interaction.
// Rows are append-only; a classification is never updated.
func Record(db *sql.DB, interactionID string, res Result) error {
	volatile, triggered := 0, 0
	if res.Volatile {
		volatile = 1
	}
	if res.RetrievalTriggered {
		triggered = 1
	}

	_, err := db.Exec(
		`INSERT INTO boundary_classifications
		 (interaction_id, classification, confidence, volatile, retrieval_triggered, rationale, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		interactionID, string(res.Class), res.Confidence, volatile, triggered,
		res.Rationale, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record classification: %w", err)
	}
	return nil
}

// #endregion record
