// Package intent turns a customer utterance into a structured intent with
// the menu items, quantities and modifications it mentions.
package intent

import (
	"context"
	"fmt"
	"strings"
)

// Intent is the closed set of customer intents
type Intent string

const (
	OrderItem    Intent = "order_item"
	ModifyItem   Intent = "modify_item"
	RemoveItem   Intent = "remove_item"
	ConfirmOrder Intent = "confirm_order"
	CancelOrder  Intent = "cancel_order"
	AskMenu      Intent = "ask_menu"
	AskPrice     Intent = "ask_price"
	RepeatOrder  Intent = "repeat_order"
	Greeting     Intent = "greeting"
	Unclear      Intent = "unclear"
)

// Intents lists every intent in declaration order
var Intents = []Intent{
	OrderItem, ModifyItem, RemoveItem, ConfirmOrder, CancelOrder,
	AskMenu, AskPrice, RepeatOrder, Greeting, Unclear,
}

// Parse maps a label onto an Intent. Unknown labels become Unclear.
func Parse(label string) Intent {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, in := range Intents {
		if string(in) == label {
			return in
		}
	}
	return Unclear
}

// Result is a classified utterance
type Result struct {
	Intent        Intent         `json:"intent"`
	Confidence    float64        `json:"confidence"`
	Items         []string       `json:"items"`
	Quantities    map[string]int `json:"quantities"`
	Modifications []string       `json:"modifications"`
	Tone          string         `json:"response_tone"`
	RawText       string         `json:"raw_text"`
}

// Quantity returns the requested quantity for an item phrase, defaulting to 1.
// Keys are matched case-insensitively, then by containment either way, so a
// quantity keyed "taco" applies to the phrase "crunchy taco".
func (r Result) Quantity(item string) int {
	key := strings.ToLower(strings.TrimSpace(item))
	for k, q := range r.Quantities {
		if strings.ToLower(k) == key && q > 0 {
			return q
		}
	}
	for k, q := range r.Quantities {
		k = strings.ToLower(k)
		if q > 0 && k != "" && (strings.Contains(key, k) || strings.Contains(k, key)) {
			return q
		}
	}
	return 1
}

// HasItems reports whether the utterance mentioned any item
func (r Result) HasItems() bool {
	return len(r.Items) > 0
}

// Classifier classifies one utterance given the trailing conversation history
type Classifier interface {
	Classify(ctx context.Context, text string, history []string) (Result, error)
}

// ClassifierError reports that classification failed after every attempt
type ClassifierError struct {
	Attempts int
	Err      error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("intent classification failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ClassifierError) Unwrap() error {
	return e.Err
}
