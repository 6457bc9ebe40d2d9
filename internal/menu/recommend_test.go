package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommend(t *testing.T) {
	engine := newTestEngine(t, Options{})

	tests := []struct {
		name     string
		current  []string
		subtotal float64
		want     []string
	}{
		{
			name:     "small main-only order gets combo, drink and side",
			current:  []string{"Crunchy Taco"},
			subtotal: 2.98,
			want:     []string{"Cravings Box", "Baja Blast", "Nacho Fries"},
		},
		{
			name:     "main without drink above threshold",
			current:  []string{"Crunchwrap Supreme", "Nacho Fries"},
			subtotal: 5.98,
			want:     []string{"Baja Blast"},
		},
		{
			name:     "main without side",
			current:  []string{"Beef Burrito", "Soft Drink", "Crunchwrap Supreme"},
			subtotal: 8.57,
			want:     []string{"Nacho Fries"},
		},
		{
			name:     "no main gets the default main",
			current:  []string{"Baja Blast"},
			subtotal: 2.29,
			want:     []string{"Crunchy Taco"},
		},
		{
			name:     "empty order gets the default main",
			current:  nil,
			subtotal: 0,
			want:     []string{"Crunchy Taco"},
		},
		{
			name:     "complete order gets nothing",
			current:  []string{"Crunchwrap Supreme", "Baja Blast", "Nacho Fries"},
			subtotal: 8.27,
			want:     nil,
		},
		{
			name:     "items already ordered are skipped",
			current:  []string{"Crunchy Taco", "Cravings Box"},
			subtotal: 4.50,
			want:     []string{"Baja Blast", "Nacho Fries"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Recommend(tt.current, tt.subtotal)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, itemNames(got))
		})
	}
}

func TestRecommend_ConfigurableRules(t *testing.T) {
	engine := newTestEngine(t, Options{Recommendations: RecommendationRules{
		DefaultDrink:        "Soft Drink",
		DefaultSide:         "Cinnamon Twists",
		DefaultMain:         "Bean Burrito",
		ValueCombo:          "Combo Meal",
		SmallOrderThreshold: 10,
	}})

	got := engine.Recommend([]string{"Crunchwrap Supreme"}, 4.49)
	assert.Equal(t, []string{"Combo Meal", "Soft Drink", "Cinnamon Twists"}, itemNames(got))

	got = engine.Recommend(nil, 0)
	assert.Equal(t, []string{"Bean Burrito"}, itemNames(got))
}
