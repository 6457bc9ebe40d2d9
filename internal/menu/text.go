package menu

import (
	"strings"
	"unicode"
)

// normalize lowercases and trims a phrase, folding curly apostrophes
func normalize(s string) string {
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.ReplaceAll(s, "‘", "'")
	return strings.ToLower(strings.TrimSpace(s))
}

// words splits text into lowercase tokens. Letters, digits and the symbols
// that appear inside menu names ('&', '$', '-', apostrophe) stay in a token.
func words(s string) []string {
	return strings.FieldsFunc(normalize(s), func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '&', '$', '-', '\'':
			return false
		}
		return true
	})
}

// containsPhrase reports whether the token sequence phrase appears
// contiguously inside tokens
func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		match := true
		for j, p := range phrase {
			if tokens[i+j] != p {
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
