package intent

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"drivethru/internal/models"
)

// Vocabulary resolves menu phrases for the rule classifier
type Vocabulary interface {
	KnownPhrases() []string
	Lookup(phrase string) (models.CatalogItem, error)
}

// RuleClassifier is an offline, lexicon-driven classifier. It recognizes
// catalog names and aliases (plural forms included), number words, common
// modification phrases and intent keywords. Unrecognized noun phrases in an
// order are kept as item phrases so the caller can report them as not found.
type RuleClassifier struct {
	vocab   Vocabulary
	phrases []knownPhrase
}

type knownPhrase struct {
	text   string
	tokens []string
}

type leftover struct {
	text     string
	qty      int
	explicit bool // preceded by a quantity word such as "a" or "two"
}

// NewRuleClassifier creates a rule classifier over the vocabulary. A nil
// vocabulary recognizes no menu items.
func NewRuleClassifier(vocab Vocabulary) *RuleClassifier {
	c := &RuleClassifier{vocab: vocab}
	if vocab == nil {
		return c
	}
	for _, p := range vocab.KnownPhrases() {
		if toks := tokenize(p); len(toks) > 0 {
			c.phrases = append(c.phrases, knownPhrase{text: p, tokens: toks})
		}
	}
	sort.SliceStable(c.phrases, func(i, j int) bool {
		return len(c.phrases[i].tokens) > len(c.phrases[j].tokens)
	})
	return c
}

var (
	numberWords = map[string]int{
		"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11,
		"twelve": 12, "dozen": 12, "couple": 2, "pair": 2,
	}

	fillerWords = toSet(
		"i", "i'd", "i'll", "i'm", "im", "id", "want", "wanna", "would", "like", "can", "could",
		"may", "get", "have", "take", "give", "gimme", "lemme", "me", "please", "to", "order",
		"also", "and", "plus", "with", "the", "some", "of", "my", "let", "let's", "um", "uh",
		"ok", "okay", "so", "just", "for", "is", "it", "that", "this", "be", "will", "how",
		"much", "does", "do", "you", "your", "on", "in", "add", "remove", "delete", "off", "out",
		"drop", "price", "cost", "costs", "yes", "yeah", "yep", "hi", "hello", "hey", "thanks",
		"thank", "more", "another", "too", "as", "well", "need", "got", "no", "small", "medium",
		"large", "regular", "size", "what's", "whats", "are", "there", "any", "all", "that's",
		"thats", "okay", "sure", "go", "gonna", "we", "our", "us", "them", "those", "these",
		"one's", "then", "maybe", "actually", "instead", "rid", "know", "menu", "tell",
	)

	negatedNo = toSet(
		"thanks", "thank", "more", "problem", "that's", "thats", "it", "that", "i",
		"nothing", "way", "worries", "one", "sir", "ma'am",
	)

	modTriggers = map[string]string{
		"no":         "no",
		"without":    "no",
		"hold":       "no",
		"extra":      "extra",
		"light":      "light",
		"easy":       "light",
		"add":        "add",
		"double":     "double",
		"sub":        "sub",
		"substitute": "sub",
	}

	cancelPhrases  = phraseList("cancel", "start over", "nevermind", "never mind", "forget it", "scratch that")
	removePhrases  = phraseList("remove", "delete", "take off", "take out", "get rid of", "drop", "don't want")
	repeatPhrases  = phraseList("repeat", "read back", "read it back", "read my order", "so far", "my order")
	pricePhrases   = phraseList("how much", "price", "cost", "costs", "how expensive")
	menuPhrases    = phraseList("menu", "options", "recommend", "recommendation", "suggest", "what's good", "whats good", "show me", "cheapest", "vegetarian", "veggie", "most expensive", "spicy", "what kind")
	confirmPhrases = phraseList("yes", "yeah", "yep", "yup", "correct", "sure", "that's all", "thats all", "that is all", "that's it", "thats it", "that is it", "that'll be all", "that'll be it", "nothing else", "i'm done", "im done", "all good", "sounds good", "perfect", "done", "confirm")
	greetPhrases   = phraseList("hi", "hello", "hey", "howdy", "hiya", "good morning", "good afternoon", "good evening")
	orderVerbs     = toSet("want", "wanna", "like", "get", "have", "take", "order", "give", "gimme", "need", "i'll", "add")
)

// Classify never fails; it returns Unclear when nothing is recognized
func (c *RuleClassifier) Classify(_ context.Context, text string, _ []string) (Result, error) {
	toks := tokenize(text)
	result := Result{
		Intent:        Unclear,
		Confidence:    0.3,
		Items:         []string{},
		Quantities:    map[string]int{},
		Modifications: []string{},
		Tone:          "clarifying",
		RawText:       text,
	}

	var (
		leftovers  []leftover
		current    []string
		currentQty int
		pendingQty int
	)
	flush := func() {
		if len(current) > 0 {
			leftovers = append(leftovers, leftover{
				text:     strings.Join(current, " "),
				qty:      max(currentQty, 1),
				explicit: currentQty > 0,
			})
		}
		current, currentQty = nil, 0
	}

	for i := 0; i < len(toks); {
		if name, n := c.matchPhrase(toks, i); n > 0 {
			flush()
			qty := max(pendingQty, 1)
			if _, seen := result.Quantities[name]; !seen {
				result.Items = append(result.Items, name)
			}
			result.Quantities[name] += qty
			pendingQty = 0
			i += n
			continue
		}

		if mod, n := c.matchModification(toks, i); n > 0 {
			flush()
			result.Modifications = append(result.Modifications, mod)
			i += n
			continue
		}

		tok := toks[i]
		if qty, ok := quantity(tok); ok {
			flush()
			if !(qty == 1 && pendingQty > 0) {
				pendingQty = qty
			}
			i++
			continue
		}

		if tok == "," || tok == "and" {
			flush()
			pendingQty = 0
			i++
			continue
		}

		if _, filler := fillerWords[tok]; filler {
			flush()
			i++
			continue
		}

		if len(current) == 0 {
			currentQty = pendingQty
			pendingQty = 0
		}
		current = append(current, tok)
		i++
	}
	flush()

	// Alongside recognized items only quantified leftovers ("a pizza") count
	// as items; stray adjectives would otherwise match tags.
	knownItems := len(result.Items) > 0
	addLeftovers := func() {
		for _, l := range leftovers {
			if knownItems && !l.explicit {
				continue
			}
			if _, seen := result.Quantities[l.text]; !seen {
				result.Items = append(result.Items, l.text)
			}
			result.Quantities[l.text] += l.qty
		}
	}

	switch {
	case hasAny(toks, cancelPhrases):
		result.Intent, result.Confidence, result.Tone = CancelOrder, 0.85, "friendly"
	case hasAny(toks, removePhrases):
		addLeftovers()
		result.Intent, result.Confidence, result.Tone = RemoveItem, 0.85, "confirming"
	case hasAny(toks, repeatPhrases) && !knownItems:
		result.Intent, result.Confidence, result.Tone = RepeatOrder, 0.85, "confirming"
	case hasAny(toks, pricePhrases):
		addLeftovers()
		result.Intent, result.Confidence, result.Tone = AskPrice, 0.85, "friendly"
	case hasAny(toks, menuPhrases) && !knownItems:
		result.Intent, result.Confidence, result.Tone = AskMenu, 0.85, "friendly"
	case knownItems:
		addLeftovers()
		result.Intent, result.Confidence, result.Tone = OrderItem, 0.9, "friendly"
	case hasAny(toks, confirmPhrases):
		result.Intent, result.Confidence, result.Tone = ConfirmOrder, 0.9, "confirming"
	case len(result.Modifications) > 0:
		result.Intent, result.Confidence, result.Tone = ModifyItem, 0.8, "confirming"
	case hasAny(toks, greetPhrases):
		result.Intent, result.Confidence, result.Tone = Greeting, 0.95, "friendly"
	case len(leftovers) > 0 && hasVerb(toks):
		addLeftovers()
		result.Intent, result.Confidence, result.Tone = OrderItem, 0.6, "friendly"
	}

	return result, nil
}

// matchPhrase finds the longest known phrase starting at toks[i] and
// returns its canonical catalog name and token length
func (c *RuleClassifier) matchPhrase(toks []string, i int) (string, int) {
	for _, p := range c.phrases {
		if i+len(p.tokens) > len(toks) {
			continue
		}
		match := true
		for j, pt := range p.tokens {
			if singular(toks[i+j]) != singular(pt) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		item, err := c.vocab.Lookup(p.text)
		if err != nil {
			return p.text, len(p.tokens)
		}
		return item.Name, len(p.tokens)
	}
	return "", 0
}

// matchModification recognizes "no X", "extra X", "easy on X", "hold the X",
// "fresco style" and similar phrases starting at toks[i]
func (c *RuleClassifier) matchModification(toks []string, i int) (string, int) {
	tok := toks[i]
	if tok == "fresco" {
		n := 1
		if i+1 < len(toks) && toks[i+1] == "style" {
			n = 2
		}
		return "fresco style", n
	}

	prefix, ok := modTriggers[tok]
	if !ok {
		return "", 0
	}

	j := i + 1
	if tok == "easy" {
		if j >= len(toks) || toks[j] != "on" {
			return "", 0
		}
		j++
	}
	if tok == "no" && j < len(toks) {
		if _, negated := negatedNo[toks[j]]; negated {
			return "", 0
		}
	}
	if j < len(toks) && toks[j] == "the" {
		j++
	}

	var object []string
	for ; j < len(toks) && len(object) < 2; j++ {
		t := toks[j]
		if t == "," || t == "and" {
			break
		}
		if _, filler := fillerWords[t]; filler {
			break
		}
		if _, isQty := quantity(t); isQty {
			break
		}
		if _, trigger := modTriggers[t]; trigger {
			break
		}
		if _, n := c.matchPhrase(toks, j); n > 0 {
			break
		}
		object = append(object, t)
	}
	if len(object) == 0 {
		return "", 0
	}
	return prefix + " " + strings.Join(object, " "), j - i
}

func quantity(tok string) (int, bool) {
	if n, ok := numberWords[tok]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(tok); err == nil && n > 0 && n < 100 {
		return n, true
	}
	return 0, false
}

func hasVerb(toks []string) bool {
	for _, t := range toks {
		if _, ok := orderVerbs[t]; ok {
			return true
		}
	}
	return false
}

func hasAny(toks []string, phrases [][]string) bool {
	for _, p := range phrases {
		if containsTokens(toks, p) {
			return true
		}
	}
	return false
}

func containsTokens(toks, phrase []string) bool {
	for i := 0; i+len(phrase) <= len(toks); i++ {
		match := true
		for j := range phrase {
			if toks[i+j] != phrase[j] {
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

// tokenize lowercases text, folds '&' into "and" and keeps commas as
// separator tokens
func tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.NewReplacer("’", "'", "‘", "'", ",", " , ", ";", " , ", "&", " and ").Replace(text)
	var toks []string
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '$', '-', '\'', ',':
			return false
		}
		return true
	}) {
		f = strings.Trim(f, "'-")
		if f != "" {
			toks = append(toks, f)
		}
	}
	return toks
}

// singular strips a plural "s" so "tacos" matches "taco"
func singular(tok string) string {
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") && !strings.HasSuffix(tok, "'s") {
		return tok[:len(tok)-1]
	}
	return tok
}

func phraseList(phrases ...string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, tokenize(p))
	}
	return out
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
