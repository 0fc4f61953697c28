package pipeline

// #region imports
import (
	"github.com/quantops/cortex-gateway/internal/boundary"
	"github.com/quantops/cortex-gateway/internal/budget"
	"github.com/quantops/cortex-gateway/internal/chain"
	"github.com/quantops/cortex-gateway/internal/gate"
	"github.com/quantops/cortex-gateway/internal/governance"
	"github.com/quantops/cortex-gateway/internal/model"
	"github.com/quantops/cortex-gateway/internal/statevec"
)

// #endregion

// #region stage

// Stage enumerates the fixed pipeline sequence. The orchestrator advances
// through stages in declaration order only; skipping is a programming error.
type Stage string

const (
	StageSession      Stage = "session"
	StageSnapshot     Stage = "snapshot"
	StageGate         Stage = "gate"
	StageBoundary     Stage = "boundary"
	StageBudget       Stage = "budget"
	StageChain        Stage = "chain"
	StageMemoryLoad   Stage = "memory_load"
	StagePrompt       Stage = "prompt"
	StageModel        Stage = "model"
	StageRecord       Stage = "record"
	StageMemoryAppend Stage = "memory_append"
	StageCounters     Stage = "counters"
)

// stageOrder is the single source of truth for legal stage succession.
var stageOrder = []Stage{
	StageSession, StageSnapshot, StageGate, StageBoundary, StageBudget,
	StageChain, StageMemoryLoad, StagePrompt, StageModel, StageRecord,
	StageMemoryAppend, StageCounters,
}

// #endregion stage

// #region request

// Request is the single request shape the pipeline handles.
type Request struct {
	Message         string          `json:"message" binding:"required"`
	SessionID       string          `json:"sessionId,omitempty"`
	History         []model.Message `json:"history,omitempty"`
	ContinueSession bool            `json:"continueSession,omitempty"`
}

// #endregion request

// #region response

// SnapshotView is the caller-visible slice of a state snapshot.
type SnapshotView struct {
	Hash         string  `json:"hash"`
	Defcon       string  `json:"defcon"`
	RegimeLabel  string  `json:"regimeLabel"`
	StrategyHash string  `json:"strategyHash"`
	Confidence   float64 `json:"regimeConfidence"`
	Atomic       bool    `json:"atomic"`
	CapturedAt   string  `json:"capturedAt"`
}

// Response is the full pipeline outcome. Short-circuited requests still
// return whatever partial state was computed, so callers can distinguish
// "blocked by policy" from "failed unexpectedly".
type Response struct {
	Success            bool               `json:"success"`
	Status             governance.Status  `json:"status"`
	InteractionID      string             `json:"interactionId"`
	SessionID          string             `json:"sessionId,omitempty"`
	StateSnapshot      *SnapshotView      `json:"stateSnapshot,omitempty"`
	Answer             string             `json:"response,omitempty"`
	ChainOfQuery       []chain.Node       `json:"chainOfQuery,omitempty"`
	KnowledgeBoundary  *boundary.Result   `json:"knowledgeBoundary,omitempty"`
	RetrievalDecision  *budget.Decision   `json:"retrievalDecision,omitempty"`
	GateDecision       *gate.Decision     `json:"gateDecision,omitempty"`
	ToolsUsed          []string           `json:"toolsUsed,omitempty"`
	TokensUsed         int                `json:"tokensUsed"`
	CostUSD            float64            `json:"costUsd"`
	Error              string             `json:"error,omitempty"`
	GovernanceWarnings []string           `json:"governanceWarnings,omitempty"`
	StageTrace         []Stage            `json:"stageTrace"`
}

func snapshotView(snap statevec.Snapshot) *SnapshotView {
	return &SnapshotView{
		Hash:         snap.Hash,
		Defcon:       snap.Defcon,
		RegimeLabel:  snap.RegimeLabel,
		StrategyHash: snap.StrategyHash,
		Confidence:   snap.RegimeConfidence,
		Atomic:       snap.Atomic,
		CapturedAt:   snap.CapturedAt.Format("2006-01-02T15:04:05.999999999Z07:00"),
	}
}

// #endregion response
