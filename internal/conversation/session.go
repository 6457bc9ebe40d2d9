package conversation

import (
	"slices"
	"time"

	"drivethru/internal/intent"
	"drivethru/internal/models"
	"drivethru/internal/recovery"

	"github.com/google/uuid"
)

// Session is the per-customer context. Everything on it is reset together
// when a new customer arrives.
type Session struct {
	ID                  string
	State               State
	Order               *models.Order
	History             []string
	ConsecutiveErrors   int
	LastSuccessfulState State
	Errors              *recovery.Tracker
	StartedAt           time.Time
	Turns               int

	// pending holds the candidate items from a low-confidence turn until
	// the customer accepts or corrects the clarification
	pending *intent.Result
}

func newSession() *Session {
	return &Session{
		ID:                  uuid.NewString(),
		State:               Greeting,
		Order:               models.NewOrder(),
		History:             []string{},
		LastSuccessfulState: Greeting,
		Errors:              recovery.NewTracker(),
		StartedAt:           time.Now(),
	}
}

func (s *Session) recentHistory(window int) []string {
	if window <= 0 || len(s.History) <= window {
		return slices.Clone(s.History)
	}
	return slices.Clone(s.History[len(s.History)-window:])
}

// Diagnostics is a snapshot of session health
type Diagnostics struct {
	SessionID          string         `json:"session_id"`
	State              State          `json:"state"`
	OrderItems         int            `json:"order_items"`
	ConsecutiveErrors  int            `json:"consecutive_errors"`
	ErrorStats         recovery.Stats `json:"error_stats"`
	ConversationLength int            `json:"conversation_length"`
	Turns              int            `json:"turns"`
	PendingItems       []string       `json:"pending_items,omitempty"`
}
