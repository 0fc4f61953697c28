package chain

import (
	"fmt"

	"github.com/quantops/cortex-gateway/internal/boundary"
)

// #region build
// Build constructs the pre-model reasoning chain deterministically:
// PLAN_INIT, then a VERIFICATION node carrying the boundary classification,
// then an optional SEARCH node when retrieval was authorized, then a
// pending REASONING node. A blocked classification ends the chain with an
// ABORT node instead. The terminal SYNTHESIS node is appended by the
// orchestrator after the model responds.
func Build(query string, class boundary.Result, retrievalAuthorized bool) []Node {
	nodes := []Node{
		{
			Index:        0,
			Type:         NodePlanInit,
			Content:      fmt.Sprintf("plan initialized for query (%d chars)", len(query)),
			Verification: VerifyVerified,
		},
	}

	verify := Node{
		Index: 1,
		Type:  NodeVerification,
		Content: fmt.Sprintf("knowledge boundary: %s (confidence %.2f)",
			class.Class, class.Confidence),
		Rationale:    class.Rationale,
		Verification: VerifyVerified,
	}
	if class.Class == boundary.ClassBlocked {
		verify.Verification = VerifyFailed
	}
	nodes = append(nodes, verify)

	if class.Class == boundary.ClassBlocked {
		return append(nodes, Node{
			Index:        2,
			Type:         NodeAbort,
			Content:      "query rejected by hallucination firewall",
			Rationale:    class.Rationale,
			Verification: VerifyAborted,
		})
	}

	if retrievalAuthorized {
		nodes = append(nodes, Node{
			Index:        len(nodes),
			Type:         NodeSearch,
			Content:      "external retrieval authorized",
			Verification: VerifyPending,
			SearchQuery:  query,
		})
	}

	return append(nodes, Node{
		Index:        len(nodes),
		Type:         NodeReasoning,
		Content:      "awaiting model response",
		Verification: VerifyPending,
	})
}

// #endregion build

// #region synthesis
// Synthesis builds the terminal node carrying the actual model outcome,
// so the chain's last entry always reflects what happened.
func Synthesis(index, tokensUsed int, costUSD float64) Node {
	return Node{
		Index:        index,
		Type:         NodeSynthesis,
		Content:      fmt.Sprintf("response synthesized (%d tokens)", tokensUsed),
		Verification: VerifyVerified,
		TokensUsed:   tokensUsed,
		CostUSD:      costUSD,
	}
}

// #endregion synthesis
