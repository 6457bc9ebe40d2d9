package intent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"drivethru/internal/menu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// MockLLM is a mock implementation of the llms.Model interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

func contentResponse(text string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: text}}}
}

func TestLLMClassifierParsesResponse(t *testing.T) {
	mockLLM := new(MockLLM)
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(contentResponse(`{
		"intent": "order_item",
		"confidence": 0.92,
		"items": ["crunchy taco"],
		"quantities": {"crunchy taco": 2},
		"modifications": ["no lettuce"],
		"response_tone": "friendly"
	}`), nil)

	c := NewLLMClassifier(mockLLM, menu.DefaultCatalog(), LLMOptions{})
	result, err := c.Classify(context.Background(), "two crunchy tacos no lettuce", nil)

	require.NoError(t, err)
	assert.Equal(t, OrderItem, result.Intent)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	assert.Equal(t, []string{"crunchy taco"}, result.Items)
	assert.Equal(t, 2, result.Quantity("crunchy taco"))
	assert.Equal(t, []string{"no lettuce"}, result.Modifications)
	assert.Equal(t, "two crunchy tacos no lettuce", result.RawText)
	mockLLM.AssertExpectations(t)
}

func TestLLMClassifierPromptIncludesMenuAndHistory(t *testing.T) {
	mockLLM := new(MockLLM)
	var captured []llms.MessageContent
	mockLLM.On("GenerateContent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]llms.MessageContent)
		}).
		Return(contentResponse(`{"intent":"greeting","confidence":1}`), nil)

	c := NewLLMClassifier(mockLLM, menu.DefaultCatalog(), LLMOptions{})
	history := []string{"Customer: one", "Agent: two", "Customer: three", "Agent: four"}
	_, err := c.Classify(context.Background(), "hello", history)
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, captured[0].Role)
	system := captured[0].Parts[0].(llms.TextContent).Text
	assert.Contains(t, system, "- Crunchy Taco ($1.49)")
	assert.Contains(t, system, "DRINKS:")

	user := captured[1].Parts[0].(llms.TextContent).Text
	assert.NotContains(t, user, "Customer: one", "only the last three history lines are sent")
	assert.Contains(t, user, "Previous: Agent: two")
	assert.Contains(t, user, "Previous: Agent: four")
	assert.True(t, strings.HasSuffix(user, "Analyze intent and extract all relevant information."))
}

func TestLLMClassifierErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		mockLLM := new(MockLLM)
		mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		_, err := NewLLMClassifier(mockLLM, nil, LLMOptions{}).Classify(context.Background(), "hi", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("empty choices", func(t *testing.T) {
		mockLLM := new(MockLLM)
		mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(&llms.ContentResponse{}, nil)

		_, err := NewLLMClassifier(mockLLM, nil, LLMOptions{}).Classify(context.Background(), "hi", nil)
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		mockLLM := new(MockLLM)
		mockLLM.On("GenerateContent", mock.Anything, mock.Anything).Return(contentResponse("not json"), nil)

		_, err := NewLLMClassifier(mockLLM, nil, LLMOptions{}).Classify(context.Background(), "hi", nil)
		assert.Error(t, err)
	})
}

func TestParseLLMOutput(t *testing.T) {
	result, err := ParseLLMOutput("```json\n" + `{
		"intent": "make_coffee",
		"items": ["", "nacho fries"],
		"quantities": {"nacho fries": 2.0, "bad": 0},
		"modifications": [{"item": "taco", "description": "extra cheese"}, {"change": "no onions"}, 42]
	}` + "\n```")
	require.NoError(t, err)

	assert.Equal(t, Unclear, result.Intent, "unknown intent labels map to unclear")
	assert.Equal(t, 0.5, result.Confidence)
	assert.Equal(t, []string{"nacho fries"}, result.Items)
	assert.Equal(t, map[string]int{"nacho fries": 2}, result.Quantities)
	assert.Equal(t, []string{"extra cheese", "no onions"}, result.Modifications)
	assert.Equal(t, "friendly", result.Tone)
}

func TestParseLLMOutputClampsConfidence(t *testing.T) {
	result, err := ParseLLMOutput(`{"intent":"confirm_order","confidence":1.7}`)
	require.NoError(t, err)
	assert.Equal(t, ConfirmOrder, result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestQuantityLookup(t *testing.T) {
	r := Result{Quantities: map[string]int{"Taco": 3, "baja blast": 2}}
	assert.Equal(t, 3, r.Quantity("taco"))
	assert.Equal(t, 3, r.Quantity("crunchy taco"))
	assert.Equal(t, 2, r.Quantity("Baja Blast"))
	assert.Equal(t, 1, r.Quantity("nacho fries"))
}

func TestParse(t *testing.T) {
	for _, in := range Intents {
		assert.Equal(t, in, Parse(string(in)))
	}
	assert.Equal(t, AskMenu, Parse(" ASK_MENU "))
	assert.Equal(t, Unclear, Parse("dance"))
}

func TestClassifierError(t *testing.T) {
	cause := errors.New("rate limited")
	err := &ClassifierError{Attempts: 3, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "intent classification failed after 3 attempt(s): rate limited", err.Error())
}
