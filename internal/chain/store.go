package chain

import (
	"database/sql"
	"fmt"
	"time"
)

// #region store
// Store persists chain nodes one row per node, in index order.
// The chain is never rewritten, only extended.
type Store struct {
	db *sql.DB
}

// NewStore creates a chain node store over the shared database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion store

// #region append
// Append persists a single node for the given interaction. The
// (interaction_id, idx) uniqueness constraint rejects rewrites.
func (s *Store) Append(interactionID string, n Node) error {
	_, err := s.db.Exec(
		`INSERT INTO chain_nodes
		 (interaction_id, idx, node_type, content, rationale, verification,
		  search_query, search_summary, tokens_used, cost_usd, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		interactionID, n.Index, string(n.Type), n.Content,
		nullIfEmpty(n.Rationale), string(n.Verification),
		nullIfEmpty(n.SearchQuery), nullIfEmpty(n.SearchSummary),
		n.TokensUsed, n.CostUSD,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append chain node %d: %w", n.Index, err)
	}
	return nil
}

// #endregion append

// #region load
// Load returns the chain for an interaction in index order.
func (s *Store) Load(interactionID string) ([]Node, error) {
	rows, err := s.db.Query(
		`SELECT idx, node_type, content, rationale, verification,
		        search_query, search_summary, tokens_used, cost_usd
		 FROM chain_nodes WHERE interaction_id = ? ORDER BY idx ASC`,
		interactionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load chain: %w", err)
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		var nodeType, verification string
		var rationale, searchQuery, searchSummary sql.NullString
		var tokens sql.NullInt64
		var cost sql.NullFloat64

		if err := rows.Scan(&n.Index, &nodeType, &n.Content, &rationale,
			&verification, &searchQuery, &searchSummary, &tokens, &cost); err != nil {
			return nil, fmt.Errorf("scan chain node: %w", err)
		}
		n.Type = NodeType(nodeType)
		n.Verification = Verification(verification)
		n.Rationale = rationale.String
		n.SearchQuery = searchQuery.String
		n.SearchSummary = searchSummary.String
		n.TokensUsed = int(tokens.Int64)
		n.CostUSD = cost.Float64
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
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
