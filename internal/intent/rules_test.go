package intent

import (
	"context"
	"testing"

	"drivethru/internal/menu"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuleClassifier(t *testing.T) *RuleClassifier {
	t.Helper()
	engine, err := menu.NewEngine(context.Background(), menu.DefaultCatalog(), menu.Options{})
	require.NoError(t, err)
	return NewRuleClassifier(engine)
}

func TestRuleClassifierIntents(t *testing.T) {
	c := newRuleClassifier(t)

	tests := []struct {
		text   string
		intent Intent
	}{
		{"Hi", Greeting},
		{"Good morning", Greeting},
		{"I want two crunchy tacos", OrderItem},
		{"That's all", ConfirmOrder},
		{"Yes", ConfirmOrder},
		{"nothing else, thanks", ConfirmOrder},
		{"cancel my order", CancelOrder},
		{"let's start over", CancelOrder},
		{"remove the nacho fries", RemoveItem},
		{"take off the baja blast", RemoveItem},
		{"how much is a crunchwrap supreme", AskPrice},
		{"can you repeat my order", RepeatOrder},
		{"any vegetarian options?", AskMenu},
		{"show me the menu", AskMenu},
		{"no lettuce please", ModifyItem},
		{"I want a pizza", OrderItem},
		{"blue sky", Unclear},
		{"", Unclear},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result, err := c.Classify(context.Background(), tt.text, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.intent, result.Intent)
			assert.Equal(t, tt.text, result.RawText)
		})
	}
}

func TestRuleClassifierExtractsItemsAndQuantities(t *testing.T) {
	c := newRuleClassifier(t)

	result, err := c.Classify(context.Background(), "I want two crunchy tacos", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crunchy Taco"}, result.Items)
	assert.Equal(t, 2, result.Quantity("Crunchy Taco"))

	result, err = c.Classify(context.Background(), "Can I get a Crunchwrap Supreme with no tomatoes and a large Baja Blast", nil)
	require.NoError(t, err)
	assert.Equal(t, OrderItem, result.Intent)
	assert.Equal(t, []string{"Crunchwrap Supreme", "Baja Blast"}, result.Items)
	assert.Equal(t, []string{"no tomatoes"}, result.Modifications)
	assert.Equal(t, 1, result.Quantity("Baja Blast"))
}

func TestRuleClassifierPrefersLongestPhrase(t *testing.T) {
	c := newRuleClassifier(t)

	result, err := c.Classify(context.Background(), "one crunchy taco supreme and 3 nachos & cheese", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crunchy Taco Supreme", "Nachos & Cheese"}, result.Items)
	assert.Equal(t, 1, result.Quantity("Crunchy Taco Supreme"))
	assert.Equal(t, 3, result.Quantity("Nachos & Cheese"))
}

func TestRuleClassifierResolvesAliases(t *testing.T) {
	c := newRuleClassifier(t)

	result, err := c.Classify(context.Background(), "gimme a DLT and a coke", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Doritos Locos Tacos", "Soft Drink"}, result.Items)
}

func TestRuleClassifierMergesRepeatedMentions(t *testing.T) {
	c := newRuleClassifier(t)

	result, err := c.Classify(context.Background(), "a bean burrito and two bean burritos", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bean Burrito"}, result.Items)
	assert.Equal(t, 3, result.Quantity("Bean Burrito"))
}

func TestRuleClassifierKeepsUnknownItems(t *testing.T) {
	c := newRuleClassifier(t)

	result, err := c.Classify(context.Background(), "I want a pizza", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza"}, result.Items)

	result, err = c.Classify(context.Background(), "a crunchy taco and a large pizza", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crunchy Taco", "pizza"}, result.Items)

	result, err = c.Classify(context.Background(), "a crunchy taco, super quick", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Crunchy Taco"}, result.Items, "unquantified words next to known items are ignored")
}

func TestRuleClassifierModifications(t *testing.T) {
	c := newRuleClassifier(t)

	tests := []struct {
		text string
		mods []string
	}{
		{"no lettuce please", []string{"no lettuce"}},
		{"hold the sour cream", []string{"no sour cream"}},
		{"extra cheese and easy on the sauce", []string{"extra cheese", "light sauce"}},
		{"make it fresco style", []string{"fresco style"}},
		{"no thanks", []string{}},
		{"add a soft taco", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			result, err := c.Classify(context.Background(), tt.text, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.mods, result.Modifications)
		})
	}
}

func TestRuleClassifierWithoutVocabulary(t *testing.T) {
	c := NewRuleClassifier(nil)

	result, err := c.Classify(context.Background(), "I'd like a crunchy taco", nil)
	require.NoError(t, err)
	assert.Equal(t, OrderItem, result.Intent)
	assert.Equal(t, []string{"crunchy taco"}, result.Items)
}

func TestSingular(t *testing.T) {
	assert.Equal(t, "taco", singular("tacos"))
	assert.Equal(t, "taco", singular("taco"))
	assert.Equal(t, "cross", singular("cross"))
	assert.Equal(t, "its", singular("its"))
	assert.Equal(t, "that's", singular("that's"))
}
