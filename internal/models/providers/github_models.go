package providers

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms/openai"
)

// GitHubModelsEndpoint serves GitHub Models through an OpenAI-compatible API
const GitHubModelsEndpoint = "https://models.inference.ai.azure.com"

// GitHubModelInfo describes a chat model available on GitHub Models
type GitHubModelInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MaxTokens int    `json:"max_tokens"`
}

// GitHubModels lists the models known to work for order classification
func GitHubModels() []GitHubModelInfo {
	return []GitHubModelInfo{
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", MaxTokens: 128000},
		{ID: "gpt-4o", Name: "GPT-4o", MaxTokens: 128000},
		{ID: "Phi-3.5-mini-instruct", Name: "Phi 3.5 Mini", MaxTokens: 8192},
		{ID: "Meta-Llama-3.1-70B-Instruct", Name: "Llama 3.1 70B", MaxTokens: 8192},
		{ID: "Mistral-large-2407", Name: "Mistral Large", MaxTokens: 32000},
	}
}

// NewGitHubModels creates an OpenAI-compatible client for GitHub Models.
// An empty token falls back to GITHUB_TOKEN.
func NewGitHubModels(token, model, embeddingModel string) (*openai.LLM, error) {
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is required for GitHub Models")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithBaseURL(GitHubModelsEndpoint),
		openai.WithModel(model),
	}
	if embeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(embeddingModel))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub Models client: %w", err)
	}
	return client, nil
}
