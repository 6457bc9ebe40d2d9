package models

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"drivethru/internal/config"
	"drivethru/internal/models/providers"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderNone   ProviderType = "none"
	ProviderOpenAI ProviderType = "openai"
	ProviderAzure  ProviderType = "azure"
	ProviderGitHub ProviderType = "github_models"
)

// ModelCredentials holds API keys and other auth details
type ModelCredentials struct {
	APIKey string
}

// ModelProvider defines a supported LLM provider
type ModelProvider struct {
	Name           string
	Type           ProviderType
	EmbeddingModel string
	Endpoint       string
	APIVersion     string
	Deployment     string
	Credentials    ModelCredentials
}

// ModelRegistry builds and caches chat models and embedding clients
type ModelRegistry struct {
	providers map[string]*ModelProvider
	instances map[string]llms.Model
	embedders map[string]embeddings.EmbedderClient
	getenv    func(string) string
	mu        sync.Mutex
}

// NewModelRegistry creates a registry with the built-in providers. The
// provider named in cfg is overridden with cfg's model, endpoint and key.
func NewModelRegistry(cfg config.LLMConfig) *ModelRegistry {
	r := &ModelRegistry{
		providers: map[string]*ModelProvider{
			string(ProviderOpenAI): {
				Name:           "gpt-4o-mini",
				Type:           ProviderOpenAI,
				EmbeddingModel: "text-embedding-3-small",
			},
			string(ProviderGitHub): {
				Name:           "gpt-4o-mini",
				Type:           ProviderGitHub,
				EmbeddingModel: "text-embedding-3-small",
				Endpoint:       providers.GitHubModelsEndpoint,
			},
			string(ProviderAzure): {
				Type:       ProviderAzure,
				APIVersion: "2024-06-01",
			},
		},
		instances: make(map[string]llms.Model),
		embedders: make(map[string]embeddings.EmbedderClient),
		getenv:    os.Getenv,
	}

	if p, ok := r.providers[cfg.Provider]; ok {
		if cfg.Model != "" {
			p.Name = cfg.Model
		}
		if cfg.EmbeddingModel != "" {
			p.EmbeddingModel = cfg.EmbeddingModel
		}
		if cfg.BaseURL != "" {
			p.Endpoint = cfg.BaseURL
		}
		if cfg.APIVersion != "" {
			p.APIVersion = cfg.APIVersion
		}
		if cfg.Deployment != "" {
			p.Deployment = cfg.Deployment
		}
		p.Credentials.APIKey = cfg.APIKey
	}
	return r
}

// Register adds or replaces a provider entry
func (r *ModelRegistry) Register(name string, p *ModelProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	delete(r.instances, name)
	delete(r.embedders, name)
}

// Providers lists the registered provider names
func (r *ModelRegistry) Providers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetModel returns an initialized chat model
func (r *ModelRegistry) GetModel(name string) (llms.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if model, exists := r.instances[name]; exists {
		return model, nil
	}

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("unknown model provider: %s", name)
	}

	model, err := r.initializeModel(provider)
	if err != nil {
		return nil, err
	}

	r.instances[name] = model
	return model, nil
}

// GetEmbedder returns an embedding client for the provider
func (r *ModelRegistry) GetEmbedder(name string) (embeddings.EmbedderClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, exists := r.embedders[name]; exists {
		return client, nil
	}

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("unknown model provider: %s", name)
	}

	var (
		client *openai.LLM
		err    error
	)
	switch provider.Type {
	case ProviderOpenAI:
		client, err = r.initializeOpenAI(provider)
	case ProviderGitHub:
		client, err = providers.NewGitHubModels(r.apiKey(provider, "GITHUB_TOKEN"), provider.Name, provider.EmbeddingModel)
	case ProviderAzure:
		client, err = r.initializeAzureEmbedder(provider)
	default:
		err = fmt.Errorf("unsupported model type: %s", provider.Type)
	}
	if err != nil {
		return nil, err
	}

	r.embedders[name] = client
	return client, nil
}

// TestModel sends a one-word prompt to check connectivity
func (r *ModelRegistry) TestModel(ctx context.Context, name string) error {
	model, err := r.GetModel(name)
	if err != nil {
		return err
	}

	_, err = llms.GenerateFromSinglePrompt(ctx, model, "Reply with the single word: ready", llms.WithMaxTokens(5))
	if err != nil {
		return fmt.Errorf("model test failed: %w", err)
	}
	return nil
}

func (r *ModelRegistry) initializeModel(provider *ModelProvider) (llms.Model, error) {
	switch provider.Type {
	case ProviderOpenAI:
		return r.initializeOpenAI(provider)
	case ProviderGitHub:
		return providers.NewGitHubModels(r.apiKey(provider, "GITHUB_TOKEN"), provider.Name, provider.EmbeddingModel)
	case ProviderAzure:
		p, err := providers.NewAzureOpenAIProvider(providers.AzureConfig{
			Endpoint:   provider.Endpoint,
			APIKey:     provider.Credentials.APIKey,
			Deployment: provider.Deployment,
		})
		if err != nil {
			return nil, err
		}
		return providers.NewModel(p), nil
	default:
		return nil, fmt.Errorf("unsupported model type: %s", provider.Type)
	}
}

func (r *ModelRegistry) initializeOpenAI(provider *ModelProvider) (*openai.LLM, error) {
	apiKey := r.apiKey(provider, "OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []openai.Option{
		openai.WithModel(provider.Name),
		openai.WithToken(apiKey),
	}
	if provider.EmbeddingModel != "" {
		opts = append(opts, openai.WithEmbeddingModel(provider.EmbeddingModel))
	}
	if provider.Endpoint != "" {
		opts = append(opts, openai.WithBaseURL(provider.Endpoint))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI model: %w", err)
	}
	return llm, nil
}

// initializeAzureEmbedder uses langchaingo's Azure mode since the chat
// provider only covers completions
func (r *ModelRegistry) initializeAzureEmbedder(provider *ModelProvider) (*openai.LLM, error) {
	apiKey := r.apiKey(provider, "AZURE_OPENAI_API_KEY")
	endpoint := provider.Endpoint
	if endpoint == "" {
		endpoint = r.getenv("AZURE_OPENAI_ENDPOINT")
	}
	if apiKey == "" || endpoint == "" {
		return nil, fmt.Errorf("azure openai configuration missing: endpoint and api key are required")
	}
	embeddingModel := provider.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}

	llm, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(strings.TrimSuffix(endpoint, "/")),
		openai.WithAPIVersion(provider.APIVersion),
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Azure embedder: %w", err)
	}
	return llm, nil
}

func (r *ModelRegistry) apiKey(provider *ModelProvider, env string) string {
	if provider.Credentials.APIKey != "" {
		return provider.Credentials.APIKey
	}
	return r.getenv(env)
}
