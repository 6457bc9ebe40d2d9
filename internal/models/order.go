package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrInvalidQuantity is returned when a line would hold fewer than one unit
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// OrderStatus represents the lifecycle tag of an order
type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// LineItem is one distinct entry in the cart
type LineItem struct {
	Name          string   `json:"name"`
	Quantity      int      `json:"quantity"`
	Price         float64  `json:"price"`
	Modifications []string `json:"modifications"`
	Confirmed     bool     `json:"confirmed"`
	Confidence    float64  `json:"confidence"`
}

// Total returns unit price times quantity
func (li LineItem) Total() float64 {
	return li.Price * float64(li.Quantity)
}

// String renders the line as "2x Crunchy Taco (no lettuce)"
func (li LineItem) String() string {
	mods := ""
	if len(li.Modifications) > 0 {
		mods = fmt.Sprintf(" (%s)", strings.Join(li.Modifications, ", "))
	}
	return fmt.Sprintf("%dx %s%s", li.Quantity, li.Name, mods)
}

// sameLine reports whether two lines merge: same name and identical modifications
func (li LineItem) sameLine(other LineItem) bool {
	return strings.EqualFold(li.Name, other.Name) && slices.Equal(li.Modifications, other.Modifications)
}

// Order is the mutable cart for one customer. Insertion order is kept so
// that "the last item" can be targeted by modifications.
type Order struct {
	Items           []LineItem  `json:"items"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
	SpecialRequests []string    `json:"special_requests"`
}

// NewOrder creates an empty active order
func NewOrder() *Order {
	return &Order{
		Items:           []LineItem{},
		Status:          OrderStatusActive,
		CreatedAt:       time.Now(),
		SpecialRequests: []string{},
	}
}

// Add merges the line into an existing one with the same name and
// modifications, or appends it.
func (o *Order) Add(line LineItem) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	line.Modifications = slices.Clone(line.Modifications)
	if line.Modifications == nil {
		line.Modifications = []string{}
	}

	for i := range o.Items {
		existing := &o.Items[i]
		if existing.sameLine(line) {
			existing.Quantity += line.Quantity
			existing.Confidence = min(existing.Confidence, line.Confidence)
			return nil
		}
	}

	o.Items = append(o.Items, line)
	return nil
}

// Remove deletes the first line whose name matches case-insensitively
func (o *Order) Remove(name string) bool {
	for i, item := range o.Items {
		if strings.EqualFold(item.Name, name) {
			o.Items = slices.Delete(o.Items, i, i+1)
			return true
		}
	}
	return false
}

// RemoveMatching removes the first line named exactly like phrase, or failing
// that the first line whose name contains it. It returns the removed name.
func (o *Order) RemoveMatching(phrase string) (string, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return "", false
	}

	for _, item := range o.Items {
		if strings.EqualFold(item.Name, phrase) {
			o.Remove(item.Name)
			return item.Name, true
		}
	}

	lower := strings.ToLower(phrase)
	for i, item := range o.Items {
		if strings.Contains(strings.ToLower(item.Name), lower) {
			o.Items = slices.Delete(o.Items, i, i+1)
			return item.Name, true
		}
	}
	return "", false
}

// ModifyLast appends modifications to the most recently added line
func (o *Order) ModifyLast(mods []string) (LineItem, bool) {
	if len(o.Items) == 0 {
		return LineItem{}, false
	}
	last := &o.Items[len(o.Items)-1]
	last.Modifications = append(last.Modifications, mods...)
	return *last, true
}

// Total sums quantity times price over every line
func (o Order) Total() float64 {
	total := 0.0
	for _, item := range o.Items {
		total += item.Total()
	}
	return total
}

// Summary renders the order in insertion order followed by the total
func (o Order) Summary() string {
	if len(o.Items) == 0 {
		return "No items in order"
	}

	var b strings.Builder
	b.WriteString("Your order:\n")
	for _, item := range o.Items {
		fmt.Fprintf(&b, "  • %s - $%.2f\n", item.String(), item.Total())
	}
	fmt.Fprintf(&b, "Total: $%.2f", o.Total())
	return b.String()
}

// HasUnconfirmedLowConfidence reports lines matched below threshold that
// the customer has not yet confirmed
func (o Order) HasUnconfirmedLowConfidence(threshold float64) bool {
	for _, item := range o.Items {
		if !item.Confirmed && item.Confidence < threshold {
			return true
		}
	}
	return false
}

// ConfirmAll marks every line as confirmed by the customer
func (o *Order) ConfirmAll() {
	for i := range o.Items {
		o.Items[i].Confirmed = true
	}
}

// AddSpecialRequest records a free-text request
func (o *Order) AddSpecialRequest(text string) {
	if text = strings.TrimSpace(text); text != "" {
		o.SpecialRequests = append(o.SpecialRequests, text)
	}
}

// Clear empties the order, leaving it active
func (o *Order) Clear() {
	o.Items = []LineItem{}
	o.SpecialRequests = []string{}
	o.Status = OrderStatusActive
}

// ItemNames lists line names in insertion order
func (o Order) ItemNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return names
}

// ItemCount returns the number of units across all lines
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the order has no lines
func (o Order) IsEmpty() bool {
	return len(o.Items) == 0
}

// Snapshot returns a deep copy safe to hand outside the session
func (o Order) Snapshot() Order {
	cp := o
	cp.Items = make([]LineItem, len(o.Items))
	for i, item := range o.Items {
		item.Modifications = slices.Clone(item.Modifications)
		cp.Items[i] = item
	}
	cp.SpecialRequests = slices.Clone(o.SpecialRequests)
	return cp
}
