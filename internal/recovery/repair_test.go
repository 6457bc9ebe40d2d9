package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectConfusion(t *testing.T) {
	r := NewRepair()

	confused := []string{
		"What?",
		"huh",
		"Wait, go back",
		"I'm confused",
		"I don't understand",
		"I'm not sure",
		"I don’t know",
	}
	for _, text := range confused {
		assert.True(t, r.DetectConfusion(text), text)
	}

	clear := []string{
		"I want two crunchy tacos",
		"What's the cheapest item",
		"that's all",
		"somewhat spicy",
		"whatever you recommend",
		"",
	}
	for _, text := range clear {
		assert.False(t, r.DetectConfusion(text), text)
	}
}

func TestGenerateClarification(t *testing.T) {
	first := NewRepairWithPicker(func(int) int { return 0 })
	last := NewRepairWithPicker(func(n int) int { return n - 1 })

	assert.Equal(t, "Just to make sure - did you say Crunchy Taco?",
		first.GenerateClarification(IssueUnclearItem, map[string]string{"item": "Crunchy Taco"}))
	assert.Equal(t, "Just to confirm - how many tacos?",
		last.GenerateClarification(IssueUnclearQuantity, map[string]string{"item": "taco"}))
	assert.Equal(t, "What changes would you like to make?",
		first.GenerateClarification(IssueUnclearModification, nil))
	assert.Equal(t, "I didn't quite catch that. What did you say?",
		last.GenerateClarification("something_else", nil))
}

func TestGenerateClarificationMissingPlaceholder(t *testing.T) {
	r := NewRepairWithPicker(func(int) int { return 1 })
	assert.Equal(t, "I want to get this right - you said {item}, correct?",
		r.GenerateClarification(IssueUnclearItem, map[string]string{}))
}

func TestGenerateClarificationRandomStaysInTable(t *testing.T) {
	r := NewRepair()
	for i := 0; i < 20; i++ {
		got := r.GenerateClarification(IssueUnclearItem, map[string]string{"item": "Nachos"})
		assert.Contains(t, got, "Nachos")
	}
}

func TestSuggestRecovery(t *testing.T) {
	r := NewRepair()
	assert.Equal(t, "Let's start over. Welcome to Taco Bell! What can I get you?", r.SuggestRecovery("greeting"))
	assert.Equal(t, "No problem! What would you like to order?", r.SuggestRecovery("taking_order"))
	assert.Equal(t, "Let me know what you'd like, and I'll make sure I get it right.", r.SuggestRecovery("clarifying"))
	assert.Equal(t, "Your order is ready. Would you like to change anything?", r.SuggestRecovery("order_complete"))
	assert.Equal(t, "Let's try that again. What can I help you with?", r.SuggestRecovery("payment"))
}
