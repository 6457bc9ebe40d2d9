package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"drivethru/internal/logging"
	"drivethru/internal/models"

	"github.com/tmc/langchaingo/llms"
)

const systemPrompt = `You are an AI assistant for a Taco Bell drive-thru.
Analyze customer speech and extract their intent.

%s

Respond with JSON containing:
- intent: one of [order_item, modify_item, remove_item, confirm_order, cancel_order, ask_menu, ask_price, repeat_order, greeting, unclear]
- confidence: 0.0 to 1.0
- items: list of menu items mentioned
- quantities: object of item:quantity
- modifications: list of modifications (e.g., no lettuce, extra cheese)
- response_tone: friendly, clarifying, or confirming

Be very careful with quantities - if they say "two tacos", quantities should be {"taco": 2}.
Extract specific menu items when possible.`

// LLMOptions tunes the LLM classifier
type LLMOptions struct {
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	HistoryLines int
	Logger       *slog.Logger
}

// LLMClassifier classifies utterances with a chat model in JSON mode
type LLMClassifier struct {
	model       llms.Model
	menuContext string
	opts        LLMOptions
	logger      *slog.Logger
}

// NewLLMClassifier creates a classifier whose prompt lists the given catalog
func NewLLMClassifier(model llms.Model, catalog []models.CatalogItem, opts LLMOptions) *LLMClassifier {
	if opts.Temperature == 0 {
		opts.Temperature = 0.1
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.HistoryLines <= 0 {
		opts.HistoryLines = 3
	}
	return &LLMClassifier{
		model:       model,
		menuContext: MenuContext(catalog),
		opts:        opts,
		logger:      logging.WithComponent(opts.Logger, "intent"),
	}
}

// Classify sends the utterance and recent history to the model and parses
// its JSON answer. Transport failures are returned as errors.
func (c *LLMClassifier) Classify(ctx context.Context, text string, history []string) (Result, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fmt.Sprintf(systemPrompt, c.menuContext)),
		llms.TextParts(llms.ChatMessageTypeHuman, c.userPrompt(text, history)),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.opts.Temperature),
		llms.WithMaxTokens(c.opts.MaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return Result{}, fmt.Errorf("generate intent: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("generate intent: empty response")
	}

	result, err := ParseLLMOutput(resp.Choices[0].Content)
	if err != nil {
		return Result{}, err
	}
	result.RawText = text

	c.logger.Debug("intent detected",
		"input", text,
		"intent", result.Intent,
		"confidence", result.Confidence,
		"items", result.Items,
		"elapsed", time.Since(start),
	)
	return result, nil
}

func (c *LLMClassifier) userPrompt(text string, history []string) string {
	if len(history) > c.opts.HistoryLines {
		history = history[len(history)-c.opts.HistoryLines:]
	}
	var b strings.Builder
	for _, h := range history {
		fmt.Fprintf(&b, "Previous: %s\n", h)
	}
	if b.Len() > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Customer just said: %q\n\nAnalyze intent and extract all relevant information.", text)
	return b.String()
}

// MenuContext renders the catalog grouped by category for prompts
func MenuContext(catalog []models.CatalogItem) string {
	var b strings.Builder
	b.WriteString("TACO BELL MENU:\n")
	for _, cat := range models.Categories {
		var lines []string
		for _, item := range catalog {
			if item.Category != cat {
				continue
			}
			line := fmt.Sprintf("- %s ($%.2f)", item.Name, item.Price)
			if len(item.Customizations) > 0 {
				line += " - " + strings.Join(item.Customizations, ", ")
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", strings.ToUpper(string(cat)), strings.Join(lines, "\n"))
	}
	return b.String()
}

type llmOutput struct {
	Intent        string             `json:"intent"`
	Confidence    *float64           `json:"confidence"`
	Items         []string           `json:"items"`
	Quantities    map[string]float64 `json:"quantities"`
	Modifications []json.RawMessage  `json:"modifications"`
	ResponseTone  string             `json:"response_tone"`
}

// ParseLLMOutput decodes a model's JSON answer. Unknown intents become
// Unclear, a missing confidence defaults to 0.5, and modifications may be
// strings or objects.
func ParseLLMOutput(content string) (Result, error) {
	content = stripCodeFence(content)

	var out llmOutput
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Result{}, fmt.Errorf("decode intent json: %w", err)
	}

	result := Result{
		Intent:        Parse(out.Intent),
		Confidence:    0.5,
		Items:         make([]string, 0, len(out.Items)),
		Quantities:    make(map[string]int, len(out.Quantities)),
		Modifications: make([]string, 0, len(out.Modifications)),
		Tone:          out.ResponseTone,
	}
	if out.Confidence != nil {
		result.Confidence = math.Max(0, math.Min(1, *out.Confidence))
	}
	if result.Tone == "" {
		result.Tone = "friendly"
	}
	for _, item := range out.Items {
		if item = strings.TrimSpace(item); item != "" {
			result.Items = append(result.Items, item)
		}
	}
	for item, q := range out.Quantities {
		if n := int(math.Round(q)); n > 0 {
			result.Quantities[item] = n
		}
	}
	for _, raw := range out.Modifications {
		if mod := decodeModification(raw); mod != "" {
			result.Modifications = append(result.Modifications, mod)
		}
	}
	return result, nil
}

func decodeModification(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if desc, ok := obj["description"].(string); ok {
		return strings.TrimSpace(desc)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := obj[k].(string); ok && v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
