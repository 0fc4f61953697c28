package model

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// #region config
// OpenAIConfig configures the OpenAI-compatible chat completion backend.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string  // optional override for OpenAI-compatible local servers
	CostPerToken float64 // USD per total token, for cost accounting
}

// #endregion config

// #region client
// OpenAIBackend implements Backend over an OpenAI-compatible chat API.
type OpenAIBackend struct {
	client       *openai.Client
	model        string
	costPerToken float64
}

// NewOpenAIBackend creates a backend client from config.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model backend: API key not set")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIBackend{
		client:       openai.NewClientWithConfig(clientCfg),
		model:        cfg.Model,
		costPerToken: cfg.CostPerToken,
	}, nil
}

// #endregion client

// #region complete
// Complete sends the system prompt, bounded history, and user message as one
// chat completion. The caller owns the timeout on ctx.
func (b *OpenAIBackend) Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string) (Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userMessage,
	})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: messages,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, fmt.Errorf("chat completion: no choices returned")
	}

	total := resp.Usage.TotalTokens
	return Completion{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      total,
		CostUSD:          float64(total) * b.costPerToken,
	}, nil
}

// #endregion complete
