package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionOptions tunes a single completion
type CompletionOptions struct {
	Temperature float64
	MaxTokens   int
}

// Provider is a chat backend that is not served by langchaingo directly
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error)
}

// Model adapts a Provider to llms.Model so the classifier and the phraser
// can use it like any langchaingo model
type Model struct {
	provider Provider
}

// NewModel wraps p
func NewModel(p Provider) *Model {
	return &Model{provider: p}
}

// GenerateContent implements llms.Model
func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var callOpts llms.CallOptions
	for _, opt := range options {
		opt(&callOpts)
	}

	converted := make([]Message, 0, len(messages))
	for _, msg := range messages {
		role, err := roleOf(msg.Role)
		if err != nil {
			return nil, err
		}
		converted = append(converted, Message{Role: role, Content: textOf(msg.Parts)})
	}

	text, err := m.provider.Complete(ctx, converted, CompletionOptions{
		Temperature: callOpts.Temperature,
		MaxTokens:   callOpts.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}, nil
}

// Call implements llms.Model
func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func roleOf(t llms.ChatMessageType) (string, error) {
	switch t {
	case llms.ChatMessageTypeSystem:
		return "system", nil
	case llms.ChatMessageTypeHuman, llms.ChatMessageTypeGeneric:
		return "user", nil
	case llms.ChatMessageTypeAI:
		return "assistant", nil
	default:
		return "", fmt.Errorf("unsupported message role: %s", t)
	}
}

func textOf(parts []llms.ContentPart) string {
	var texts []string
	for _, part := range parts {
		if text, ok := part.(llms.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	return strings.Join(texts, "\n")
}
