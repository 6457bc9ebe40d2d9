package recovery

import (
	"context"
	"log/slog"
	"time"

	"drivethru/internal/logging"
)

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Observer receives error and escalation signals, typically for metrics
type Observer interface {
	ObserveError(kind string)
	ObserveEscalation(kind string)
}

// Options configures a Handler
type Options struct {
	MaxRetries          int
	EscalationThreshold int
	BaseBackoff         time.Duration
	MaxBackoff          time.Duration
	Sleep               Sleeper
	Observer            Observer
	Logger              *slog.Logger
}

// Handler turns failure events into recovery decisions and customer-facing
// messages. It holds no per-session state; counters live on a Tracker.
type Handler struct {
	maxRetries          int
	escalationThreshold int
	baseBackoff         time.Duration
	maxBackoff          time.Duration
	sleep               Sleeper
	observer            Observer
	logger              *slog.Logger
	table               map[Kind]Strategy
}

// NewHandler creates a handler with the standard message and strategy tables
func NewHandler(opts Options) *Handler {
	h := &Handler{
		maxRetries:          opts.MaxRetries,
		escalationThreshold: opts.EscalationThreshold,
		baseBackoff:         opts.BaseBackoff,
		maxBackoff:          opts.MaxBackoff,
		sleep:               opts.Sleep,
		observer:            opts.Observer,
		logger:              logging.WithComponent(opts.Logger, "recovery"),
	}
	if h.maxRetries <= 0 {
		h.maxRetries = DefaultMaxRetries
	}
	if h.escalationThreshold <= 0 {
		h.escalationThreshold = 5
	}
	if h.baseBackoff <= 0 {
		h.baseBackoff = time.Second
	}
	if h.maxBackoff <= 0 {
		h.maxBackoff = 10 * time.Second
	}
	if h.sleep == nil {
		h.sleep = SleepContext
	}
	h.table = h.strategies()
	return h
}

// Handle records the event on the tracker and decides how to recover.
// It returns whether a retry may proceed and the message for the customer.
func (h *Handler) Handle(ctx context.Context, tracker *Tracker, ev Event) (bool, string) {
	if ev.MaxRetries <= 0 {
		ev.MaxRetries = h.maxRetries
	}
	if ev.Severity == "" {
		ev.Severity = SeverityMedium
	}

	h.logger.Log(ctx, ev.Severity.logLevel(), "conversation error",
		"kind", ev.Kind,
		"severity", ev.Severity,
		"message", ev.Message,
		"retry", ev.RetryCount,
		"max_retries", ev.MaxRetries,
	)

	if tracker != nil {
		tracker.Record(ev.Kind)
		if h.observer != nil {
			h.observer.ObserveError(string(ev.Kind))
		}
		if tracker.Count(ev.Kind) == h.escalationThreshold {
			h.logger.Warn("escalation threshold reached", "kind", ev.Kind, "count", h.escalationThreshold)
			if h.observer != nil {
				h.observer.ObserveEscalation(string(ev.Kind))
			}
		}
	}

	message := ev.UserMessage
	if message == "" {
		message = Message(ev.Kind)
	}

	strategy, registered := h.table[ev.Kind]
	if registered && ev.RetryCount < ev.MaxRetries {
		return strategy(ctx, ev), message
	}

	if ev.RetryCount >= ev.MaxRetries {
		h.logger.Warn("max retries reached", "kind", ev.Kind)
		return false, exhaustedMessage
	}

	return false, message
}

// ShouldEscalate reports whether kind has recurred often enough in the
// session to warrant a human. It is a signal only.
func (h *Handler) ShouldEscalate(tracker *Tracker, kind Kind) bool {
	return tracker != nil && tracker.Count(kind) >= h.escalationThreshold
}

// HasStrategy reports whether a recovery strategy is registered for kind
func (h *Handler) HasStrategy(kind Kind) bool {
	_, ok := h.table[kind]
	return ok
}

// Message returns the default customer-facing wording for a kind
func Message(kind Kind) string {
	if msg, ok := messages[kind]; ok {
		return msg
	}
	return defaultMessage
}

// SleepContext sleeps for d unless ctx is cancelled first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
