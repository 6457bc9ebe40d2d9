package conversation

import (
	"context"
	"fmt"
	"strings"

	"drivethru/internal/intent"
	"drivethru/internal/menu"
	"drivethru/internal/models"
	"drivethru/internal/recovery"
	"drivethru/internal/respond"
)

// handlerFunc handles a classified turn in one state and returns the reply
// and the target state
type handlerFunc func(m *Manager, ctx context.Context, r intent.Result) (string, State, error)

// handlers must have an entry for every State
var handlers = map[State]handlerFunc{
	Greeting:      (*Manager).handleGreeting,
	TakingOrder:   (*Manager).handleTakingOrder,
	Clarifying:    (*Manager).handleClarifying,
	ErrorRecovery: (*Manager).handleErrorRecovery,
	OrderComplete: (*Manager).handleOrderComplete,
	Payment:       (*Manager).handlePayment,
	Goodbye:       (*Manager).handleGoodbye,
}

func (m *Manager) handleGreeting(ctx context.Context, r intent.Result) (string, State, error) {
	if r.Intent == intent.OrderItem {
		return m.processItems(ctx, r), TakingOrder, nil
	}
	return m.phrase(ctx, r, respond.TimeGreeting(m.now())), TakingOrder, nil
}

func (m *Manager) handleTakingOrder(ctx context.Context, r intent.Result) (string, State, error) {
	order := m.session.Order

	switch r.Intent {
	case intent.OrderItem:
		return m.processItems(ctx, r), TakingOrder, nil

	case intent.ConfirmOrder:
		if order.IsEmpty() {
			return "You haven't ordered anything yet. What would you like?", TakingOrder, nil
		}
		if order.HasUnconfirmedLowConfidence(m.limits.ClarifyBelow) {
			return "Just to make sure I got everything right - " + order.Summary(), Clarifying, nil
		}
		return order.Summary() + "\n\nIs that correct?", OrderComplete, nil

	case intent.RemoveItem:
		return m.removeItems(r), TakingOrder, nil

	case intent.ModifyItem:
		return m.modifyLast(r), TakingOrder, nil

	case intent.AskMenu:
		return m.phrase(ctx, r, m.describeMenu(ctx, r)), TakingOrder, nil

	case intent.AskPrice:
		return m.quotePrice(ctx, r), TakingOrder, nil

	case intent.RepeatOrder:
		if order.IsEmpty() {
			return "You haven't ordered anything yet. What would you like?", TakingOrder, nil
		}
		return order.Summary() + "\n\nAnything else?", TakingOrder, nil

	case intent.CancelOrder:
		order.Clear()
		m.session.pending = nil
		return "No problem! Let's start fresh. What can I get you?", TakingOrder, nil

	default:
		return m.phrase(ctx, r, "What would you like to order?"), TakingOrder, nil
	}
}

// handleClarifying resolves an outstanding clarification. Acceptance adds
// any pending items and confirms every line; a correction with items orders
// those instead.
func (m *Manager) handleClarifying(ctx context.Context, r intent.Result) (string, State, error) {
	s := m.session
	pending := s.pending
	s.pending = nil

	if r.Intent == intent.ConfirmOrder || saidYes(r.RawText) {
		reply := "Great! Anything else?"
		if pending != nil {
			reply = m.processItems(ctx, *pending)
		}
		s.Order.ConfirmAll()
		return reply, TakingOrder, nil
	}

	if r.HasItems() {
		return m.processItems(ctx, r), TakingOrder, nil
	}
	return "No problem. What should it be?", TakingOrder, nil
}

// handleErrorRecovery returns to the last state that succeeded. New items
// resume ordering directly.
func (m *Manager) handleErrorRecovery(ctx context.Context, r intent.Result) (string, State, error) {
	target := m.session.LastSuccessfulState
	if target == Greeting || target == ErrorRecovery || r.Intent == intent.Unclear {
		target = TakingOrder
	}

	if r.Intent == intent.OrderItem {
		return m.processItems(ctx, r), TakingOrder, nil
	}
	return "What can I get for you?", target, nil
}

func (m *Manager) handleOrderComplete(_ context.Context, _ intent.Result) (string, State, error) {
	order := m.session.Order
	order.Status = models.OrderStatusConfirmed
	return fmt.Sprintf("Your total is $%.2f. Please pull forward to the window.", order.Total()), Payment, nil
}

func (m *Manager) handlePayment(_ context.Context, _ intent.Result) (string, State, error) {
	m.session.Order.Status = models.OrderStatusPaid
	return "Thank you! Your order will be ready at the window.", Goodbye, nil
}

func (m *Manager) handleGoodbye(_ context.Context, _ intent.Result) (string, State, error) {
	return "Thank you for choosing Taco Bell!", Goodbye, nil
}

// processItems resolves each mentioned phrase to its best menu match and
// adds the accepted ones. Modifications attach to the item when exactly one
// was mentioned.
func (m *Manager) processItems(ctx context.Context, r intent.Result) string {
	if !r.HasItems() {
		return "What would you like to order?"
	}

	order := m.session.Order
	var added, notFound []string
	for _, phrase := range r.Items {
		results, err := m.menu.Search(ctx, phrase, 1)
		if err != nil {
			m.logger.Warn("menu search failed", "phrase", phrase, "error", err)
			notFound = append(notFound, phrase)
			continue
		}
		if len(results) == 0 || results[0].Score <= m.limits.Match {
			notFound = append(notFound, phrase)
			continue
		}

		match := results[0]
		qty := r.Quantity(phrase)
		line := models.LineItem{
			Name:       match.Item.Name,
			Quantity:   qty,
			Price:      match.Item.Price,
			Confidence: match.Score,
		}
		if len(r.Items) == 1 {
			line.Modifications = r.Modifications
		}
		if err := order.Add(line); err != nil {
			m.logger.Warn("rejected line item", "item", match.Item.Name, "error", err)
			notFound = append(notFound, phrase)
			continue
		}
		added = append(added, fmt.Sprintf("%d %s", qty, match.Item.Name))
	}

	if len(added) > 0 {
		reply := fmt.Sprintf("I've added %s to your order.", strings.Join(added, ", "))
		if recs := m.menu.Recommend(order.ItemNames(), order.Total()); len(recs) > 0 {
			return reply + fmt.Sprintf(" Would you like to add a %s for $%.2f?", recs[0].Name, recs[0].Price)
		}
		return reply + " Anything else?"
	}

	_, message := m.recovery.Handle(ctx, m.session.Errors, recovery.Event{
		Kind:     recovery.KindItemNotFound,
		Severity: recovery.SeverityLow,
		Message:  fmt.Sprintf("Items not found: %s", strings.Join(notFound, ", ")),
	})
	return message + m.suggestAlternatives(ctx, notFound[0])
}

// suggestAlternatives offers the closest matches for an unknown phrase, or
// a sample of the menu when nothing is close
func (m *Manager) suggestAlternatives(ctx context.Context, phrase string) string {
	results, err := m.menu.Search(ctx, phrase, menu.DefaultTopK)
	if err == nil && len(results) > 0 {
		names := make([]string, 0, len(results))
		for _, res := range results {
			names = append(names, res.Item.Name)
		}
		return fmt.Sprintf(" Did you mean %s?", strings.Join(names, ", "))
	}

	sample := m.menu.Sampler()
	if len(sample) == 0 {
		return ""
	}
	names := make([]string, 0, len(sample))
	for _, item := range sample {
		names = append(names, item.Name)
	}
	return fmt.Sprintf(" How about %s?", strings.Join(names, ", "))
}

func (m *Manager) removeItems(r intent.Result) string {
	if !r.HasItems() {
		return "What would you like to remove?"
	}

	var removed []string
	for _, phrase := range r.Items {
		if name, ok := m.session.Order.RemoveMatching(phrase); ok {
			removed = append(removed, name)
		}
	}
	if len(removed) == 0 {
		return "I couldn't find that item in your order."
	}
	return fmt.Sprintf("I've removed %s from your order. Anything else?", strings.Join(removed, ", "))
}

func (m *Manager) modifyLast(r intent.Result) string {
	if len(r.Modifications) == 0 {
		return "What would you like to change?"
	}
	line, ok := m.session.Order.ModifyLast(r.Modifications)
	if !ok {
		return "You haven't ordered anything yet. What would you like?"
	}
	return fmt.Sprintf("Got it, %s for your %s. Anything else?", strings.Join(r.Modifications, ", "), line.Name)
}

// describeMenu lists a few items: those of a named category, else the
// non-semantic matches for the question (cheapest, vegetarian, tags), else
// the tacos
func (m *Manager) describeMenu(ctx context.Context, r intent.Result) string {
	items := m.categoryMentioned(r.RawText)

	if len(items) == 0 {
		results, err := m.menu.Search(ctx, r.RawText, menu.DefaultTopK)
		if err == nil && len(results) > 0 && results[0].Tier != menu.TierSemantic {
			for _, res := range results {
				items = append(items, res.Item)
			}
		}
	}
	if len(items) == 0 {
		items = m.menu.CategoryItems(models.CategoryTacos)
	}
	if len(items) > 3 {
		items = items[:3]
	}
	if len(items) == 0 {
		return "What sounds good today?"
	}

	entries := make([]string, 0, len(items))
	for _, item := range items {
		entries = append(entries, fmt.Sprintf("%s ($%.2f)", item.Name, item.Price))
	}
	return fmt.Sprintf("We have %s, and much more! What sounds good?", strings.Join(entries, ", "))
}

func (m *Manager) categoryMentioned(text string) []models.CatalogItem {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?")
		if cat, ok := models.ParseCategory(word); ok {
			return m.menu.CategoryItems(cat)
		}
		if cat, ok := models.ParseCategory(word + "s"); ok {
			return m.menu.CategoryItems(cat)
		}
	}
	return nil
}

func (m *Manager) quotePrice(ctx context.Context, r intent.Result) string {
	if !r.HasItems() {
		return "Which item would you like to know the price for?"
	}

	results, err := m.menu.Search(ctx, r.Items[0], 1)
	if err != nil || len(results) == 0 || results[0].Score <= m.limits.Match {
		_, message := m.recovery.Handle(ctx, m.session.Errors, recovery.Event{
			Kind:     recovery.KindItemNotFound,
			Severity: recovery.SeverityLow,
			Message:  fmt.Sprintf("Price lookup failed: %s", r.Items[0]),
		})
		return message
	}
	item := results[0].Item
	return fmt.Sprintf("Our %s is $%.2f. Would you like to add it?", item.Name, item.Price)
}

// phrase routes a reply through the phraser when one is configured,
// keeping the template text when generation is unavailable
func (m *Manager) phrase(ctx context.Context, r intent.Result, template string) string {
	if m.phraser == nil {
		return template
	}

	s := m.session
	text, err := m.phraser.Generate(ctx, respond.Context{
		Intent:        r.Intent,
		Items:         r.Items,
		Quantities:    r.Quantities,
		Modifications: r.Modifications,
		History:       s.recentHistory(m.limits.HistoryWindow),
		CurrentOrder:  s.Order.ItemNames(),
		Total:         s.Order.Total(),
		Tone:          respond.ParseTone(r.Tone),
		IncludeUpsell: true,
		Extra:         "Suggested reply: " + template,
	})
	if err != nil {
		return template
	}
	return text
}

func saidYes(text string) bool {
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if strings.Trim(word, ".,!?") == "yes" {
			return true
		}
	}
	return false
}
