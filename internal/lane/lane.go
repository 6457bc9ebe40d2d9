// Package lane runs one drive-thru lane: it feeds turns to the
// conversation manager, logs them, and closes each conversation when the
// customer leaves.
package lane

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"drivethru/internal/conversation"
	"drivethru/internal/logging"
	"drivethru/internal/models"
	"drivethru/internal/monitoring"
	"drivethru/internal/recovery"
	"drivethru/internal/sessionlog"
)

// OrderView is the order as shown to clients
type OrderView struct {
	Items   []models.LineItem  `json:"items"`
	Total   float64            `json:"total"`
	Status  models.OrderStatus `json:"status"`
	Summary string             `json:"summary"`
}

// NewOrderView renders an order snapshot
func NewOrderView(o models.Order) OrderView {
	items := o.Items
	if items == nil {
		items = []models.LineItem{}
	}
	return OrderView{
		Items:   items,
		Total:   o.Total(),
		Status:  o.Status,
		Summary: o.Summary(),
	}
}

// Result is the outcome of one turn
type Result struct {
	Response string             `json:"response"`
	State    conversation.State `json:"state"`
	Order    OrderView          `json:"order"`
	Escalate []recovery.Kind    `json:"escalate,omitempty"`
	// Complete is set on the turn that ends a conversation. The lane is
	// already reset for the next customer.
	Complete bool `json:"conversation_complete"`
}

// TurnLimitMessage is appended when a conversation runs out of turns
const TurnLimitMessage = "Please pull forward to the window and a team member will help you."

// Options configures a Lane
type Options struct {
	Manager  *conversation.Manager
	Recorder *sessionlog.Recorder
	Monitor  *monitoring.Monitor
	// Greeter supplies the opening line spoken by Open
	Greeter func() string
	// MaxTurns ends a conversation that has not reached Goodbye. Zero
	// means no limit.
	MaxTurns int
	Logger   *slog.Logger
}

// Lane serialises turns for a single customer at a time
type Lane struct {
	mu       sync.Mutex
	manager  *conversation.Manager
	recorder *sessionlog.Recorder
	monitor  *monitoring.Monitor
	greeter  func() string
	maxTurns int
	logger   *slog.Logger
	open     bool
	turns    int
}

// New creates a lane. Recorder and Monitor are optional.
func New(opts Options) (*Lane, error) {
	if opts.Manager == nil {
		return nil, errors.New("lane: conversation manager is required")
	}
	return &Lane{
		manager:  opts.Manager,
		recorder: opts.Recorder,
		monitor:  opts.Monitor,
		greeter:  opts.Greeter,
		maxTurns: opts.MaxTurns,
		logger:   logging.WithComponent(opts.Logger, "lane"),
	}, nil
}

// Open starts a conversation with the agent speaking first and returns the
// greeting. Without a Greeter it returns an empty string and the customer
// opens.
func (l *Lane) Open() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.greeter == nil {
		return ""
	}
	greeting := l.greeter()
	if l.recorder != nil {
		l.recorder.Begin(greeting)
	}
	l.open = true
	return greeting
}

// Turn processes one customer utterance. Reaching Goodbye or the turn
// limit closes the conversation and resets the lane.
func (l *Lane) Turn(ctx context.Context, text string, confidence float64) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	reply := l.manager.ProcessInput(ctx, text, confidence)
	l.open = true
	l.turns++
	if l.recorder != nil {
		l.recorder.Record(text, confidence, reply.Text, string(reply.State))
	}

	order := l.manager.Order()
	result := Result{
		Response: reply.Text,
		State:    reply.State,
		Order:    NewOrderView(order),
		Escalate: l.manager.ShouldEscalate(),
	}

	switch {
	case reply.State == conversation.Goodbye:
		l.finish(ctx, order, true)
		result.Complete = true
	case l.maxTurns > 0 && l.turns >= l.maxTurns:
		l.logger.Warn("conversation hit the turn limit", "turns", l.turns)
		result.Response += " " + TurnLimitMessage
		l.finish(ctx, order, false)
		result.Complete = true
	}
	return result
}

// Reset abandons the conversation in progress and starts a new one
func (l *Lane) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open {
		l.finish(ctx, l.manager.Order(), false)
		return
	}
	l.manager.Reset()
}

// Close ends any open conversation so the session log is flushed
func (l *Lane) Close(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.open {
		l.finish(ctx, l.manager.Order(), false)
	}
}

// Order returns the order in progress
func (l *Lane) Order() OrderView {
	return NewOrderView(l.manager.Order())
}

// Diagnostics reports the health of the current conversation
func (l *Lane) Diagnostics() conversation.Diagnostics {
	return l.manager.Diagnostics()
}

// SessionLogID is the identifier of the session log, empty when logging
// is disabled
func (l *Lane) SessionLogID() string {
	if l.recorder == nil {
		return ""
	}
	return l.recorder.SessionID()
}

func (l *Lane) finish(ctx context.Context, order models.Order, success bool) {
	diag := l.manager.Diagnostics()
	if l.monitor != nil {
		l.monitor.RecordConversation(success, order.Total(), diag.ErrorStats.TotalErrors)
	}
	if l.recorder != nil {
		conv, err := l.recorder.End(ctx, order, success)
		if err != nil {
			l.logger.Error("failed to save session log", "error", err, "session_log_id", l.recorder.SessionID())
		} else {
			l.logger.Info("conversation ended",
				"conversation_id", diag.SessionID,
				"success", success,
				"turns", conv.TurnCount,
				"total", conv.Total,
			)
		}
	}
	l.manager.Reset()
	l.open = false
	l.turns = 0
}
