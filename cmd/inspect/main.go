package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/store"
)

// #region main
func main() {
	dbPath := flag.String("db", envOr("CORTEX_DB", "cortex_gateway.db"), "path to gateway database")
	limit := flag.Int("limit", 10, "rows to show per section")
	flag.Parse()

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	db := st.DB()

	fmt.Println("=== Recent interactions ===")
	rows, err := db.Query(
		`SELECT interaction_id, session_id, status, tokens_used, cost_usd, latency_ms, created_at
		 FROM interactions ORDER BY created_at DESC LIMIT ?`, *limit,
	)
	if err != nil {
		log.Fatalf("query interactions: %v", err)
	}
	for rows.Next() {
		var id, sessionID, status, createdAt string
		var tokens int
		var cost float64
		var latency int64
		if err := rows.Scan(&id, &sessionID, &status, &tokens, &cost, &latency, &createdAt); err != nil {
			log.Fatalf("scan interaction: %v", err)
		}
		fmt.Printf("  %s  session=%s status=%-16s tokens=%-5d cost=%.5f latency=%dms  %s\n",
			id[:8], sessionID[:8], status, tokens, cost, latency, createdAt)
	}
	rows.Close()

	fmt.Println("\n=== Recent sessions ===")
	rows, err = db.Query(
		`SELECT session_id, interaction_count, active, created_at, expires_at
		 FROM sessions ORDER BY created_at DESC LIMIT ?`, *limit,
	)
	if err != nil {
		log.Fatalf("query sessions: %v", err)
	}
	for rows.Next() {
		var id, createdAt, expiresAt string
		var count, active int
		if err := rows.Scan(&id, &count, &active, &createdAt, &expiresAt); err != nil {
			log.Fatalf("scan session: %v", err)
		}
		fmt.Printf("  %s  interactions=%-4d active=%d created=%s expires=%s\n",
			id[:8], count, active, createdAt, expiresAt)
	}
	rows.Close()

	fmt.Println("\n=== Evidence counters ===")
	acc := governance.NewEvidenceAccumulator(db)
	totals, err := acc.Totals()
	if err != nil {
		log.Fatalf("read counters: %v", err)
	}
	for name, value := range totals {
		fmt.Printf("  %-24s %d\n", name, value)
	}
	today, err := acc.Today()
	if err != nil {
		log.Fatalf("read daily counters: %v", err)
	}
	fmt.Println("\n=== Today ===")
	for name, value := range today {
		fmt.Printf("  %-24s %d\n", name, value)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
