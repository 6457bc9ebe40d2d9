package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type recordingProvider struct {
	messages []Message
	opts     CompletionOptions
	reply    string
	err      error
}

func (p *recordingProvider) Complete(_ context.Context, messages []Message, opts CompletionOptions) (string, error) {
	p.messages = messages
	p.opts = opts
	return p.reply, p.err
}

func TestModelGenerateContent(t *testing.T) {
	provider := &recordingProvider{reply: `{"intent":"order"}`}
	model := NewModel(provider)

	resp, err := model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "You classify orders."),
		llms.TextParts(llms.ChatMessageTypeAI, "Welcome!"),
		llms.TextParts(llms.ChatMessageTypeHuman, "two tacos", "please"),
	}, llms.WithTemperature(0.2), llms.WithMaxTokens(64))
	require.NoError(t, err)

	require.Len(t, resp.Choices, 1)
	assert.Equal(t, `{"intent":"order"}`, resp.Choices[0].Content)
	assert.Equal(t, []Message{
		{Role: "system", Content: "You classify orders."},
		{Role: "assistant", Content: "Welcome!"},
		{Role: "user", Content: "two tacos\nplease"},
	}, provider.messages)
	assert.Equal(t, CompletionOptions{Temperature: 0.2, MaxTokens: 64}, provider.opts)
}

func TestModelCall(t *testing.T) {
	provider := &recordingProvider{reply: "ready"}

	out, err := NewModel(provider).Call(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "ready", out)
	assert.Equal(t, []Message{{Role: "user", Content: "ping"}}, provider.messages)
}

func TestModelPropagatesErrors(t *testing.T) {
	boom := errors.New("rate limited")
	model := NewModel(&recordingProvider{err: boom})

	_, err := model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
	})
	assert.ErrorIs(t, err, boom)

	_, err = model.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeTool, "hi"),
	})
	assert.ErrorContains(t, err, "unsupported message role")
}

func TestAzureMessages(t *testing.T) {
	msgs, err := azureMessages([]Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.IsType(t, &azopenai.ChatRequestSystemMessage{}, msgs[0])
	assert.IsType(t, &azopenai.ChatRequestUserMessage{}, msgs[1])
	assert.IsType(t, &azopenai.ChatRequestAssistantMessage{}, msgs[2])

	_, err = azureMessages([]Message{{Role: "tool", Content: "x"}})
	assert.Error(t, err)
}

func TestNewAzureOpenAIProvider(t *testing.T) {
	t.Setenv("AZURE_OPENAI_ENDPOINT", "")
	t.Setenv("AZURE_OPENAI_API_KEY", "")
	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "")

	_, err := NewAzureOpenAIProvider(AzureConfig{})
	assert.ErrorContains(t, err, "configuration missing")

	t.Setenv("AZURE_OPENAI_DEPLOYMENT_NAME", "orders")
	p, err := NewAzureOpenAIProvider(AzureConfig{
		Endpoint: "https://example.openai.azure.com",
		APIKey:   "key",
	})
	require.NoError(t, err)
	assert.Equal(t, "orders", p.Deployment())
}

func TestNewGitHubModels(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	_, err := NewGitHubModels("", "", "")
	assert.ErrorContains(t, err, "GITHUB_TOKEN")

	client, err := NewGitHubModels("gh-token", "gpt-4o", "")
	require.NoError(t, err)
	assert.NotNil(t, client)

	ids := make([]string, 0)
	for _, m := range GitHubModels() {
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, "gpt-4o-mini")
}
