package chain

// #region node-type
// NodeType labels one step in a reasoning chain.
type NodeType string

const (
	NodePlanInit     NodeType = "PLAN_INIT"
	NodeReasoning    NodeType = "REASONING"
	NodeSearch       NodeType = "SEARCH"
	NodeVerification NodeType = "VERIFICATION"
	NodePlanRevision NodeType = "PLAN_REVISION"
	NodeSynthesis    NodeType = "SYNTHESIS"
	NodeAbort        NodeType = "ABORT"
)

// #endregion node-type

// #region verification
// Verification is the per-node verification status.
type Verification string

const (
	VerifyPending  Verification = "PENDING"
	VerifyVerified Verification = "VERIFIED"
	VerifyFailed   Verification = "FAILED"
	VerifySkipped  Verification = "SKIPPED"
	VerifyAborted  Verification = "ABORTED"
)

// #endregion verification

// #region node
// Node is one entry of the reasoning audit trail. Nodes are appended,
// never edited.
type Node struct {
	Index         int          `json:"index"`
	Type          NodeType     `json:"type"`
	Content       string       `json:"content"`
	Rationale     string       `json:"rationale,omitempty"`
	Verification  Verification `json:"verification"`
	SearchQuery   string       `json:"searchQuery,omitempty"`
	SearchSummary string       `json:"searchSummary,omitempty"`
	TokensUsed    int          `json:"tokensUsed,omitempty"`
	CostUSD       float64      `json:"costUsd,omitempty"`
}

// #endregion node
