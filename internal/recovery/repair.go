package recovery

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
)

// Clarification issue types
const (
	IssueUnclearItem         = "unclear_item"
	IssueUnclearQuantity     = "unclear_quantity"
	IssueUnclearModification = "unclear_modification"
)

var clarificationTemplates = map[string][]string{
	IssueUnclearItem: {
		"Just to make sure - did you say {item}?",
		"I want to get this right - you said {item}, correct?",
		"Quick question - is that {item}?",
	},
	IssueUnclearQuantity: {
		"How many {item} would you like?",
		"Did you want one {item} or more?",
		"Just to confirm - how many {item}s?",
	},
	IssueUnclearModification: {
		"What changes would you like to make?",
		"What would you like to add or remove?",
		"How would you like to modify that?",
	},
}

var fallbackClarifications = []string{
	"Could you repeat that?",
	"I didn't quite catch that. What did you say?",
}

var recoveryPaths = map[string]string{
	"greeting":       "Let's start over. Welcome to Taco Bell! What can I get you?",
	"taking_order":   "No problem! What would you like to order?",
	"clarifying":     "Let me know what you'd like, and I'll make sure I get it right.",
	"order_complete": "Your order is ready. Would you like to change anything?",
}

const defaultRecoveryPath = "Let's try that again. What can I help you with?"

var confusionWords = []string{"what", "huh", "wait", "confused"}

var confusionPhrases = [][]string{
	{"don't", "understand"},
	{"not", "sure"},
	{"don't", "know"},
}

var placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)

// Repair produces clarification questions and recovery prompts
type Repair struct {
	pick func(n int) int
}

// NewRepair creates a Repair that picks templates uniformly at random
func NewRepair() *Repair {
	return &Repair{pick: rand.IntN}
}

// NewRepairWithPicker creates a Repair with a deterministic template picker
func NewRepairWithPicker(pick func(n int) int) *Repair {
	return &Repair{pick: pick}
}

// DetectConfusion reports whether the customer sounds lost
func (r *Repair) DetectConfusion(text string) bool {
	tokens := tokenize(text)
	for _, tok := range tokens {
		for _, w := range confusionWords {
			if tok == w {
				return true
			}
		}
	}
	for _, phrase := range confusionPhrases {
		if containsSequence(tokens, phrase) {
			return true
		}
	}
	return false
}

// GenerateClarification fills a random template for the issue type.
// Templates whose placeholders are missing from vars are returned unfilled.
func (r *Repair) GenerateClarification(issue string, vars map[string]string) string {
	templates, ok := clarificationTemplates[issue]
	if !ok {
		templates = fallbackClarifications
	}
	template := templates[r.pick(len(templates))]
	return fill(template, vars)
}

// SuggestRecovery returns the prompt that steers a conversation in the
// given state back on track
func (r *Repair) SuggestRecovery(state string) string {
	if path, ok := recoveryPaths[state]; ok {
		return path
	}
	return defaultRecoveryPath
}

func fill(template string, vars map[string]string) string {
	for _, m := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		if _, ok := vars[m[1]]; !ok {
			return template
		}
	}
	return placeholderPattern.ReplaceAllStringFunc(template, func(ph string) string {
		return vars[ph[1:len(ph)-1]]
	})
}

func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func containsSequence(tokens, seq []string) bool {
	for i := 0; i+len(seq) <= len(tokens); i++ {
		match := true
		for j := range seq {
			if tokens[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
