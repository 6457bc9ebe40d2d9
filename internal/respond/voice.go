// Package respond phrases agent replies in the restaurant's brand voice,
// with an LLM when one is configured and fixed templates otherwise.
package respond

import (
	"strings"
	"time"
)

// Tone is the register of a reply
type Tone string

const (
	Friendly     Tone = "friendly"
	Excited      Tone = "excited"
	Apologetic   Tone = "apologetic"
	Professional Tone = "professional"
	Casual       Tone = "casual"
)

// ParseTone maps a label onto a Tone, defaulting to Friendly
func ParseTone(label string) Tone {
	switch t := Tone(strings.ToLower(strings.TrimSpace(label))); t {
	case Friendly, Excited, Apologetic, Professional, Casual:
		return t
	default:
		return Friendly
	}
}

var personalityTraits = []string{
	"friendly and casual",
	"enthusiastic about food",
	"helpful and patient",
	"uses positive language",
	"conversational, not robotic",
}

var doUse = []string{
	"Casual phrases like 'awesome', 'sounds good', 'perfect'",
	"Food enthusiasm: 'delicious', 'crave-worthy', 'loaded'",
	"Confirmation: 'got it', 'you got it', 'coming right up'",
	"Friendly transitions: 'anything else?', 'what else can I get you?'",
	"Natural contractions: I'll, you're, we've",
}

var dontUse = []string{
	"Overly formal language: 'certainly', 'indeed', 'shall'",
	"Corporate jargon",
	"Negative framing: 'we don't have' → use 'how about' instead",
	"Robotic phrases: 'I am processing your request'",
	"Apologizing excessively",
}

// TimeGreeting returns the greeting for the hour of t
func TimeGreeting(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 11:
		return "Good morning! Welcome to Taco Bell."
	case h >= 11 && h < 17:
		return "Hey! Welcome to Taco Bell."
	case h >= 17 && h < 22:
		return "Evening! Welcome to Taco Bell."
	default:
		return "What's up! Late night cravings? We got you."
	}
}

func containsAny(items []string, needles ...string) bool {
	for _, item := range items {
		item = strings.ToLower(item)
		for _, n := range needles {
			if strings.Contains(item, n) {
				return true
			}
		}
	}
	return false
}

func lacksDrink(items []string) bool {
	return !containsAny(items, "drink", "baja", "blast", "soda", "pepsi", "dew")
}

func lacksSide(items []string) bool {
	return !containsAny(items, "fries", "nachos", "twist", "chips")
}

func dessertOpportunity(items []string) bool {
	return len(items) >= 2 && !containsAny(items, "twist", "cinnamon")
}

func comboUpgrade(items []string, total float64) bool {
	return total < 5.0 && len(items) >= 2 && !containsAny(items, "box", "combo")
}
