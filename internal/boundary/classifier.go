package boundary

import (
	"fmt"
	"strings"
)

// #region keywords

// externalKeywords indicate the answer depends on facts past the training
// cutoff or on live system state: temporal, positional, and market-state words.
var externalKeywords = []string{
	"current", "now", "today", "latest", "live", "recent", "breaking",
	"position", "allocation", "balance", "holdings", "portfolio", "exposure",
	"price", "pnl", "drawdown", "open orders", "btc", "eth",
	"this week", "this month", "yesterday", "right now",
}

// parametricKeywords indicate a definitional or explanatory question the
// model can answer from its own weights.
var parametricKeywords = []string{
	"what is", "what are", "define", "definition", "explain", "meaning",
	"how does", "how do", "why does", "why do", "difference between",
	"concept", "theory", "in general", "example of", "describe",
}

// volatileKeywords flag time-sensitive topics regardless of the primary
// classification.
var volatileKeywords = []string{
	"now", "current", "currently", "today", "latest", "live",
	"right now", "at the moment", "this morning", "breaking",
}

// firewallPatterns hard-block queries that ask the model to fabricate
// live facts. Matching any of these is a terminal BLOCKED outcome.
var firewallPatterns = []string{
	"make up a price",
	"invent a number",
	"pretend you know",
	"fabricate",
	"guess the exact",
}

// #endregion keywords

// #region classify

// Classify scores a query against the external and parametric keyword sets.
// Pure function of the text: identical input yields identical output.
// Ties and near-ties are HYBRID, never an error.
func Classify(query string) Result {
	lower := strings.ToLower(strings.TrimSpace(query))

	for _, p := range firewallPatterns {
		if strings.Contains(lower, p) {
			return Result{
				Class:      ClassBlocked,
				Confidence: 0.95,
				Volatile:   containsAny(lower, volatileKeywords),
				Rationale:  fmt.Sprintf("hallucination firewall: matched %q", p),
			}
		}
	}

	external := score(lower, externalKeywords)
	parametric := score(lower, parametricKeywords)
	volatile := containsAny(lower, volatileKeywords)

	var class Class
	var winning float64
	switch {
	case external > 1.5*parametric && external > 0:
		class = ClassExternalRequired
		winning = external
	case parametric > 1.5*external && parametric > 0:
		class = ClassParametric
		winning = parametric
	default:
		class = ClassHybrid
		winning = external
		if parametric > winning {
			winning = parametric
		}
	}

	confidence := 0.5 + 0.1*winning
	if confidence > 0.95 {
		confidence = 0.95
	}

	triggered := class == ClassExternalRequired || (class == ClassHybrid && volatile)

	return Result{
		Class:              class,
		Confidence:         confidence,
		Volatile:           volatile,
		RetrievalTriggered: triggered,
		Rationale: fmt.Sprintf("external=%.1f parametric=%.1f volatile=%v",
			external, parametric, volatile),
	}
}

// #endregion classify

// #region scoring

// score counts keyword hits. Multi-word keywords match as substrings,
// single-word keywords match as whole tokens to avoid accidental hits
// inside longer words.
func score(lower string, keywords []string) float64 {
	tokens := tokenize(lower)
	tokenSet := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = true
	}

	var total float64
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(lower, kw) {
				total++
			}
			continue
		}
		if tokenSet[kw] {
			total++
		}
	}
	return total
}

func containsAny(lower string, keywords []string) bool {
	return score(lower, keywords) > 0
}

// #endregion scoring
