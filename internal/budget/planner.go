package budget

import (
	"fmt"
	"strings"
)

// #region termination
// TerminationReason states which condition decided the retrieval plan.
type TerminationReason string

const (
	ReasonExecuted       TerminationReason = "EXECUTED"
	ReasonBudgetExceeded TerminationReason = "BUDGET_EXCEEDED"
	ReasonScentTooLow    TerminationReason = "SCENT_TOO_LOW"
	// ReasonDiminishingReturns is reserved for multi-hop planning; the
	// single-shot planner never produces it but stored decisions keep the
	// value space forward-compatible.
	ReasonDiminishingReturns TerminationReason = "DIMINISHING_RETURNS"
)

// #endregion termination

// #region decision
// Decision is the immutable outcome of budget planning. The planner only
// authorizes retrieval; executing it is a separate collaborator.
type Decision struct {
	EstimatedTokens   int               `json:"estimatedTokens"`
	EstimatedCostUSD  float64           `json:"estimatedCostUsd"`
	Scent             float64           `json:"scent"` // [0, 0.95] likelihood the query benefits from retrieval
	WithinBudget      bool              `json:"withinBudget"`
	Execute           bool              `json:"execute"`
	TerminationReason TerminationReason `json:"terminationReason"`
}

// #endregion decision

// #region config
// Config holds planner thresholds.
type Config struct {
	CostPerToken       float64 // USD per estimated token
	RemainingBudgetUSD float64 // configured ceiling, not a live ledger
	ScentThreshold     float64
	RetrievalOverhead  int // fixed token overhead added to every retrieval
}

// DefaultConfig returns planner defaults.
func DefaultConfig() Config {
	return Config{
		CostPerToken:       0.00002,
		RemainingBudgetUSD: 0.05,
		ScentThreshold:     0.4,
		RetrievalOverhead:  256,
	}
}

// #endregion config

// #region domain-tokens
// domainTokens earn a scent bonus: queries naming these are specific enough
// that retrieval is likely to pay for itself.
var domainTokens = map[string]bool{
	"btc": true, "eth": true, "sol": true,
	"position": true, "allocation": true, "portfolio": true,
	"regime": true, "strategy": true, "defcon": true,
	"drawdown": true, "pnl": true, "exposure": true,
	"volatility": true, "liquidity": true, "funding": true,
}

// #endregion domain-tokens

// #region planner
// Planner gates retrieval behind cost and scent checks.
type Planner struct {
	config Config
}

// NewPlanner creates a Planner with the given configuration.
func NewPlanner(config Config) *Planner {
	return &Planner{config: config}
}

// #endregion planner

// #region plan
// Plan runs the 2-gate authorization:
//  1. Gate 1 — Budget: estimated cost must fit the remaining ceiling
//  2. Gate 2 — Scent: query must look specific enough to benefit
//
// Termination reason reflects the first failing gate, in priority order.
func (p *Planner) Plan(query string) Decision {
	tokens := len(query)/4 + p.config.RetrievalOverhead
	cost := float64(tokens) * p.config.CostPerToken
	scent := scentScore(query)

	d := Decision{
		EstimatedTokens:  tokens,
		EstimatedCostUSD: cost,
		Scent:            scent,
		WithinBudget:     cost <= p.config.RemainingBudgetUSD,
	}

	switch {
	case !d.WithinBudget:
		d.TerminationReason = ReasonBudgetExceeded
	case scent < p.config.ScentThreshold:
		d.TerminationReason = ReasonScentTooLow
	default:
		d.Execute = true
		d.TerminationReason = ReasonExecuted
	}

	return d
}

// #endregion plan

// #region scent
// scentScore estimates retrieval value from query specificity: a word-count
// component plus a bonus per domain token, saturating at 0.95.
func scentScore(query string) float64 {
	words := strings.Fields(strings.ToLower(query))
	score := 0.05 * float64(len(words))

	for _, w := range words {
		w = strings.Trim(w, "?.,!:;\"'")
		if domainTokens[w] {
			score += 0.15
		}
	}

	if score > 0.95 {
		score = 0.95
	}
	return score
}

// #endregion scent

// #region string
func (d Decision) String() string {
	return fmt.Sprintf("tokens=%d cost=%.5f scent=%.2f execute=%v reason=%s",
		d.EstimatedTokens, d.EstimatedCostUSD, d.Scent, d.Execute, d.TerminationReason)
}

// #endregion string
