package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func taco(qty int, mods ...string) LineItem {
	return LineItem{Name: "Crunchy Taco", Quantity: qty, Price: 1.49, Modifications: mods, Confidence: 1.0}
}

func TestOrder_AddMergesIdenticalLines(t *testing.T) {
	order := NewOrder()

	for _, qty := range []int{1, 2, 3} {
		require.NoError(t, order.Add(taco(qty)))
	}

	require.Len(t, order.Items, 1)
	assert.Equal(t, 6, order.Items[0].Quantity)
	assert.InDelta(t, 6*1.49, order.Total(), 1e-9)
}

func TestOrder_AddKeepsDistinctModifications(t *testing.T) {
	order := NewOrder()

	require.NoError(t, order.Add(taco(1)))
	require.NoError(t, order.Add(taco(1, "no lettuce")))
	require.NoError(t, order.Add(taco(2, "no lettuce")))

	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.Equal(t, 3, order.Items[1].Quantity)
	assert.Equal(t, "3x Crunchy Taco (no lettuce)", order.Items[1].String())
}

func TestOrder_AddRejectsNonPositiveQuantity(t *testing.T) {
	order := NewOrder()

	assert.ErrorIs(t, order.Add(taco(0)), ErrInvalidQuantity)
	assert.ErrorIs(t, order.Add(taco(-2)), ErrInvalidQuantity)
	assert.True(t, order.IsEmpty())
}

func TestOrder_MergeKeepsLowestConfidence(t *testing.T) {
	order := NewOrder()

	first := taco(1)
	second := taco(1)
	second.Confidence = 0.6

	require.NoError(t, order.Add(first))
	require.NoError(t, order.Add(second))

	assert.Equal(t, 0.6, order.Items[0].Confidence)
}

func TestOrder_RemoveRoundTrip(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(2)))
	require.NoError(t, order.Add(LineItem{Name: "Bean Burrito", Quantity: 1, Price: 1.29, Confidence: 1}))

	assert.True(t, order.Remove("crunchy taco"))

	require.Len(t, order.Items, 1)
	assert.Equal(t, "Bean Burrito", order.Items[0].Name)
	assert.Equal(t, 1, order.Items[0].Quantity)
	assert.InDelta(t, 1.29, order.Total(), 1e-9)
}

func TestOrder_RemoveLastLeavesEmptyOrder(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(1)))

	assert.True(t, order.Remove("Crunchy Taco"))
	assert.False(t, order.Remove("Crunchy Taco"))

	assert.NotNil(t, order.Items)
	assert.Empty(t, order.Items)
	assert.Equal(t, 0.0, order.Total())
	assert.Equal(t, "No items in order", order.Summary())
}

func TestOrder_RemoveMatching(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(1)))
	require.NoError(t, order.Add(LineItem{Name: "Crunchy Taco Supreme", Quantity: 1, Price: 1.99}))
	require.NoError(t, order.Add(LineItem{Name: "Baja Blast", Quantity: 1, Price: 2.29}))

	name, ok := order.RemoveMatching("crunchy taco supreme")
	require.True(t, ok)
	assert.Equal(t, "Crunchy Taco Supreme", name)

	name, ok = order.RemoveMatching("baja")
	require.True(t, ok)
	assert.Equal(t, "Baja Blast", name)

	_, ok = order.RemoveMatching("pizza")
	assert.False(t, ok)
	assert.Equal(t, []string{"Crunchy Taco"}, order.ItemNames())
}

func TestOrder_TotalInvariantAcrossMutations(t *testing.T) {
	order := NewOrder()
	lines := []LineItem{
		taco(2),
		{Name: "Baja Blast", Quantity: 1, Price: 2.29},
		{Name: "Nacho Fries", Quantity: 3, Price: 1.49},
		taco(1, "extra cheese"),
	}
	for _, l := range lines {
		require.NoError(t, order.Add(l))
	}

	expected := func() float64 {
		sum := 0.0
		for _, item := range order.Items {
			sum += item.Price * float64(item.Quantity)
		}
		return sum
	}

	assert.InDelta(t, expected(), order.Total(), 1e-9)
	order.Remove("Nacho Fries")
	assert.InDelta(t, expected(), order.Total(), 1e-9)
	order.Remove("Crunchy Taco")
	order.Remove("Crunchy Taco")
	order.Remove("Baja Blast")
	assert.Equal(t, 0.0, order.Total())
}

func TestOrder_Summary(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(2)))
	require.NoError(t, order.Add(LineItem{Name: "Baja Blast", Quantity: 1, Price: 2.29}))

	expected := "Your order:\n" +
		"  • 2x Crunchy Taco - $2.98\n" +
		"  • 1x Baja Blast - $2.29\n" +
		"Total: $5.27"
	assert.Equal(t, expected, order.Summary())
}

func TestOrder_ModifyLast(t *testing.T) {
	order := NewOrder()

	_, ok := order.ModifyLast([]string{"no lettuce"})
	assert.False(t, ok)

	require.NoError(t, order.Add(taco(1)))
	require.NoError(t, order.Add(LineItem{Name: "Bean Burrito", Quantity: 1, Price: 1.29}))

	line, ok := order.ModifyLast([]string{"no onions", "add rice"})
	require.True(t, ok)
	assert.Equal(t, "Bean Burrito", line.Name)
	assert.Equal(t, []string{"no onions", "add rice"}, order.Items[1].Modifications)
	assert.Empty(t, order.Items[0].Modifications)
}

func TestOrder_LowConfidenceAndConfirm(t *testing.T) {
	order := NewOrder()
	low := taco(1)
	low.Confidence = 0.55
	require.NoError(t, order.Add(low))

	assert.True(t, order.HasUnconfirmedLowConfidence(0.7))

	order.ConfirmAll()
	assert.False(t, order.HasUnconfirmedLowConfidence(0.7))
}

func TestOrder_SnapshotIsIndependent(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(1, "no cheese")))
	order.AddSpecialRequest("extra napkins")

	snap := order.Snapshot()
	order.ModifyLast([]string{"extra cheese"})
	order.Clear()

	require.Len(t, snap.Items, 1)
	assert.Equal(t, []string{"no cheese"}, snap.Items[0].Modifications)
	assert.Equal(t, []string{"extra napkins"}, snap.SpecialRequests)
	assert.Equal(t, 1, snap.ItemCount())
}

func TestOrder_ReadMethodsOnReturnedValue(t *testing.T) {
	order := NewOrder()
	require.NoError(t, order.Add(taco(2)))
	current := func() Order { return order.Snapshot() }

	assert.InDelta(t, 2.98, current().Total(), 1e-9)
	assert.Contains(t, current().Summary(), "Total: $2.98")
	assert.Equal(t, []string{"Crunchy Taco"}, current().ItemNames())
	assert.Equal(t, 2, current().ItemCount())
	assert.False(t, current().IsEmpty())
}
