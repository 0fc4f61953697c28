package pipeline

import (
	"fmt"
	"strings"

	"github.com/quantops/cortex-gateway/internal/boundary"
	"github.com/quantops/cortex-gateway/internal/gate"
	"github.com/quantops/cortex-gateway/internal/memory"
	"github.com/quantops/cortex-gateway/internal/model"
	"github.com/quantops/cortex-gateway/internal/statevec"
)

// #region system-prompt

// buildSystemPrompt assembles the state-bound system prompt. Every response
// the model produces is conditioned on exactly one snapshot, named by hash,
// so the answer is traceable to the facts in force when it was generated.
func buildSystemPrompt(snap statevec.Snapshot, gd gate.Decision, class boundary.Result) string {
	var b strings.Builder

	b.WriteString("You are the cognitive interface of a governed trading operations system.\n")
	b.WriteString("Answer strictly within the system state below.\n\n")

	fmt.Fprintf(&b, "SYSTEM STATE (snapshot %s):\n", snap.Hash[:16])
	fmt.Fprintf(&b, "- DEFCON: %s\n", snap.Defcon)
	fmt.Fprintf(&b, "- Market regime: %s (confidence %.2f)\n", snap.RegimeLabel, snap.RegimeConfidence)
	fmt.Fprintf(&b, "- Active strategy: %s\n", snap.StrategyHash)

	if len(gd.Restrictions) > 0 {
		b.WriteString("\nACTIVE RESTRICTIONS:\n")
		for _, r := range gd.Restrictions {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}

	fmt.Fprintf(&b, "\nKNOWLEDGE BOUNDARY: the query was classified %s.\n", class.Class)
	if class.Class == boundary.ClassExternalRequired || class.Volatile {
		b.WriteString("Do not state live market facts from memory; qualify anything time-sensitive.\n")
	}

	return b.String()
}

// #endregion system-prompt

// #region history

// historyMessages converts stored transcript entries into backend messages.
// Only conversational kinds are forwarded; audit kinds stay in the store.
func historyMessages(entries []memory.Entry) []model.Message {
	var msgs []model.Message
	for _, e := range entries {
		switch e.Kind {
		case memory.KindUserInput:
			msgs = append(msgs, model.Message{Role: "user", Content: e.Content})
		case memory.KindAssistantOutput:
			msgs = append(msgs, model.Message{Role: "assistant", Content: e.Content})
		}
	}
	return msgs
}

// #endregion history
