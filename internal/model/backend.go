package model

import "context"

// #region types

// Message is one turn of bounded conversation history sent to the backend.
type Message struct {
	Role    string // "user" | "assistant" | "system"
	Content string
}

// Completion holds the response from a backend call plus usage accounting.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// #endregion types

// #region backend
// Backend is the opaque text-completion service behind the pipeline.
// Implementations must respect ctx cancellation and deadlines.
type Backend interface {
	Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (Completion, error)
}

// #endregion backend
