package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"drivethru/internal/intent"
	"drivethru/internal/logging"
	"drivethru/internal/models"

	"github.com/tmc/langchaingo/llms"
)

// ErrNoModel is returned by Generate when no model is configured
var ErrNoModel = errors.New("no response model configured")

// Context is everything the phraser knows about the turn
type Context struct {
	Intent        intent.Intent
	Items         []string
	Quantities    map[string]int
	Modifications []string
	History       []string
	CurrentOrder  []string
	Total         float64
	Tone          Tone
	IncludeUpsell bool
	Extra         string
}

// Options tunes the generator
type Options struct {
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *slog.Logger
}

// Generator produces brand-voice replies
type Generator struct {
	model  llms.Model
	opts   Options
	logger *slog.Logger
	now    func() time.Time
	pick   func(n int) int
}

// NewGenerator creates a generator. A nil model makes every reply come from
// the template fallback.
func NewGenerator(model llms.Model, opts Options) *Generator {
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 150
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Generator{
		model:  model,
		opts:   opts,
		logger: logging.WithComponent(opts.Logger, "respond"),
		now:    time.Now,
		pick:   rand.IntN,
	}
}

// Generate asks the model for a reply and post-processes it
func (g *Generator) Generate(ctx context.Context, c Context) (string, error) {
	if g.model == nil {
		return "", ErrNoModel
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt(c.Tone)),
		llms.TextParts(llms.ChatMessageTypeHuman, g.userPrompt(c)),
	},
		llms.WithTemperature(g.opts.Temperature),
		llms.WithMaxTokens(g.opts.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generate response: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("generate response: empty response")
	}

	text := PostProcess(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("generate response: blank response")
	}
	return text, nil
}

// Respond returns a generated reply, or the template fallback when
// generation is unavailable
func (g *Generator) Respond(ctx context.Context, c Context) string {
	text, err := g.Generate(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrNoModel) {
			g.logger.Warn("response generation failed, using fallback", "error", err)
		}
		return g.Fallback(c)
	}
	return text
}

// Greeting returns the time-of-day greeting
func (g *Generator) Greeting() string {
	return TimeGreeting(g.now())
}

func systemPrompt(tone Tone) string {
	if tone == "" {
		tone = Friendly
	}
	bullets := func(lines []string) string {
		return "- " + strings.Join(lines, "\n- ")
	}
	return fmt.Sprintf(`You are a friendly Taco Bell drive-thru order taker.

BRAND PERSONALITY:
%s

VOICE GUIDELINES - DO USE:
%s

VOICE GUIDELINES - DON'T USE:
%s

TONE FOR THIS RESPONSE: %s

RULES:
1. Keep responses under 25 words when possible
2. Be conversational and natural
3. Use contractions (I'll, you're, etc.)
4. Sound enthusiastic about the food
5. Never sound robotic or scripted
6. If suggesting items, be specific with prices
7. Keep the conversation moving forward
8. Match the customer's energy level

Remember: You're a real person who loves working at Taco Bell, not a robot!`,
		bullets(personalityTraits), bullets(doUse), bullets(dontUse), tone)
}

func (g *Generator) userPrompt(c Context) string {
	history := "(This is the start of the conversation)"
	if len(c.History) > 0 {
		recent := c.History
		if len(recent) > 4 {
			recent = recent[len(recent)-4:]
		}
		history = strings.Join(recent, "\n")
	}

	order := "(No items yet)"
	if len(c.CurrentOrder) > 0 {
		order = strings.Join(c.CurrentOrder, ", ")
	}

	entities, _ := json.MarshalIndent(map[string]any{
		"items":         c.Items,
		"quantities":    c.Quantities,
		"modifications": c.Modifications,
	}, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "SITUATION:\nCustomer Intent: %s\nExtracted Info: %s\n\n", c.Intent, entities)
	fmt.Fprintf(&b, "CURRENT ORDER:\n%s\nTotal so far: $%.2f\n\n", order, c.Total)
	fmt.Fprintf(&b, "RECENT CONVERSATION:\n%s\n", history)
	if c.Extra != "" {
		fmt.Fprintf(&b, "\nADDITIONAL CONTEXT:\n%s\n", c.Extra)
	}
	if c.IncludeUpsell && ShouldUpsell(c) {
		if suggestion := UpsellSuggestion(c); suggestion != "" {
			fmt.Fprintf(&b, "\nSUGGESTION: Consider offering %s\n", suggestion)
		}
	}
	b.WriteString("\nGenerate your response (keep it natural and brief):")
	return b.String()
}

var upsellIndicators = []string{"would you like", "want to add", "how about", "try our", "make that"}

// ShouldUpsell reports whether an upsell fits this turn: not at the start
// of the conversation, not while finishing or cancelling, not on an empty
// order and not right after another offer
func ShouldUpsell(c Context) bool {
	if len(c.History) < 2 {
		return false
	}
	if c.Intent == intent.ConfirmOrder || c.Intent == intent.CancelOrder {
		return false
	}
	if len(c.CurrentOrder) == 0 {
		return false
	}

	recent := c.History
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	joined := strings.ToLower(strings.Join(recent, " "))
	for _, indicator := range upsellIndicators {
		if strings.Contains(joined, indicator) {
			return false
		}
	}
	return true
}

// UpsellSuggestion names the offer that best completes the order
func UpsellSuggestion(c Context) string {
	items := c.CurrentOrder
	switch {
	case len(items) == 0:
		return ""
	case lacksDrink(items):
		return "a Baja Blast for $2.29"
	case lacksSide(items):
		return "Nacho Fries for $1.49"
	case comboUpgrade(items, c.Total):
		return "the $5 Cravings Box which includes way more food"
	case dessertOpportunity(items):
		return "Cinnamon Twists for just $1"
	default:
		return ""
	}
}

// PostProcess tidies model output: surrounding quotes are trimmed, the
// first letter is capitalized, terminal punctuation is ensured and doubled
// punctuation and whitespace are collapsed
func PostProcess(text string) string {
	text = strings.TrimSpace(strings.Trim(text, `"'`))
	if text == "" {
		return ""
	}
	if !strings.ContainsRune(".!?", rune(text[len(text)-1])) {
		text += "."
	}
	r, size := utf8.DecodeRuneInString(text)
	text = string(unicode.ToUpper(r)) + text[size:]

	text = strings.ReplaceAll(text, "!!", "!")
	text = strings.ReplaceAll(text, "??", "?")
	text = strings.ReplaceAll(text, "..", ".")
	return strings.Join(strings.Fields(text), " ")
}

// Fallback returns the fixed template reply for an intent
func (g *Generator) Fallback(c Context) string {
	switch c.Intent {
	case intent.OrderItem:
		if len(c.Items) > 0 {
			return fmt.Sprintf("Got it! Adding %s to your order. Anything else?", strings.Join(c.Items, ", "))
		}
		return "Sure! What would you like to order?"
	case intent.ConfirmOrder:
		if c.Total > 0 {
			return fmt.Sprintf("Perfect! Your total is $%.2f. Please pull forward!", c.Total)
		}
		return "You haven't ordered anything yet. What would you like?"
	case intent.ModifyItem:
		return "No problem, I'll make that change. What else can I get you?"
	case intent.RemoveItem:
		if len(c.Items) > 0 {
			return fmt.Sprintf("Done! Removed %s from your order.", c.Items[0])
		}
		return "What would you like to remove?"
	case intent.AskMenu:
		return "We have tacos, burritos, quesadillas, nachos, and drinks! What sounds good?"
	case intent.AskPrice:
		if len(c.Items) > 0 {
			return fmt.Sprintf("Let me check the price for %s.", c.Items[0])
		}
		return "Which item would you like to know about?"
	case intent.Greeting:
		return g.Greeting()
	case intent.CancelOrder:
		return "No problem! Let's start fresh. What can I get you?"
	default:
		return "What can I get for you today?"
	}
}

// FormatOrderConfirmation reads the order back with one of the
// confirmation templates
func (g *Generator) FormatOrderConfirmation(lines []models.LineItem, total float64) string {
	if len(lines) == 0 {
		return "Your order is empty. What would you like?"
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.String())
	}
	items := strings.Join(parts, ", ")

	templates := []string{
		fmt.Sprintf("Awesome! So I've got %s. Your total is $%.2f. Sound good?", items, total),
		fmt.Sprintf("Perfect! That's %s for $%.2f. All set?", items, total),
		fmt.Sprintf("You got it! %s coming up. That'll be $%.2f. Anything else?", items, total),
	}
	return templates[g.pick(len(templates))]
}
