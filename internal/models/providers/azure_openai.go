package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureConfig locates an Azure OpenAI chat deployment. Empty fields fall
// back to AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_KEY and
// AZURE_OPENAI_DEPLOYMENT_NAME.
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

func (c AzureConfig) withEnv() AzureConfig {
	if c.Endpoint == "" {
		c.Endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	if c.Deployment == "" {
		c.Deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	return c
}

// AzureOpenAIProvider implements Provider for Azure OpenAI
type AzureOpenAIProvider struct {
	client         *azopenai.Client
	deploymentName string
}

// NewAzureOpenAIProvider creates a new Azure OpenAI provider
func NewAzureOpenAIProvider(cfg AzureConfig) (*AzureOpenAIProvider, error) {
	cfg = cfg.withEnv()
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, fmt.Errorf("azure openai configuration missing: endpoint, api key and deployment are required")
	}

	client, err := azopenai.NewClientWithKeyCredential(cfg.Endpoint, azcore.NewKeyCredential(cfg.APIKey), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	return &AzureOpenAIProvider{client: client, deploymentName: cfg.Deployment}, nil
}

// Deployment returns the chat deployment name
func (p *AzureOpenAIProvider) Deployment() string {
	return p.deploymentName
}

// Complete implements Provider
func (p *AzureOpenAIProvider) Complete(ctx context.Context, messages []Message, opts CompletionOptions) (string, error) {
	chatMessages, err := azureMessages(messages)
	if err != nil {
		return "", err
	}

	req := azopenai.ChatCompletionsOptions{
		Messages:       chatMessages,
		DeploymentName: to.Ptr(p.deploymentName),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = to.Ptr(int32(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		req.Temperature = to.Ptr(float32(opts.Temperature))
	}

	resp, err := p.client.GetChatCompletions(ctx, req, nil)
	if err != nil {
		return "", fmt.Errorf("azure openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}
	if resp.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("empty response from Azure OpenAI")
	}
	return *resp.Choices[0].Message.Content, nil
}

func azureMessages(messages []Message) ([]azopenai.ChatRequestMessageClassification, error) {
	chatMessages := make([]azopenai.ChatRequestMessageClassification, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case "system":
			chatMessages[i] = &azopenai.ChatRequestSystemMessage{
				Content: azopenai.NewChatRequestSystemMessageContent(msg.Content),
			}
		case "user":
			chatMessages[i] = &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(msg.Content),
			}
		case "assistant":
			chatMessages[i] = &azopenai.ChatRequestAssistantMessage{
				Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content),
			}
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return chatMessages, nil
}
