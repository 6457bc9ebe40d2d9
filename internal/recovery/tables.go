package recovery

import (
	"context"
	"time"
)

const (
	defaultMessage    = "Let me try that again."
	exhaustedMessage  = "I'm having trouble processing that. Let's try something else."
	DefaultMaxRetries = 3
)

// messages is the customer-facing wording per kind
var messages = map[Kind]string{
	KindASRFailure:       "I didn't catch that. Could you repeat?",
	KindASRLowConfidence: "Sorry, I didn't quite hear that. What did you say?",
	KindAPITimeout:       "Give me just a second...",
	KindAPIRateLimit:     "One moment please...",
	KindNetworkError:     "Having a little technical issue. Let me try that again.",
	KindItemNotFound:     "I couldn't find that on our menu. What else can I get you?",
	KindAmbiguousOrder:   "Just to clarify - what would you like?",
	KindEmptyOrder:       "What can I get started for you today?",
}

// Strategy performs a kind's recovery side effect and reports whether the
// caller may retry
type Strategy func(ctx context.Context, ev Event) bool

// strategies builds the kind to strategy table. Upstream kinds back off
// before allowing a retry; input and domain kinds recover immediately by
// asking the customer again.
func (h *Handler) strategies() map[Kind]Strategy {
	immediate := func(context.Context, Event) bool { return true }

	return map[Kind]Strategy{
		KindASRFailure:       immediate,
		KindASRLowConfidence: immediate,
		KindAPITimeout:       h.backoffStrategy(1),
		KindAPIRateLimit:     h.backoffStrategy(1),
		KindNetworkError:     h.backoffStrategy(2),
		KindItemNotFound:     immediate,
		KindAmbiguousOrder:   immediate,
		KindEmptyOrder:       immediate,
	}
}

// backoffStrategy sleeps for an exponentially growing, capped delay
func (h *Handler) backoffStrategy(factor int) Strategy {
	return func(ctx context.Context, ev Event) bool {
		delay := Backoff(time.Duration(factor)*h.baseBackoff, h.maxBackoff, ev.RetryCount)
		if err := h.sleep(ctx, delay); err != nil {
			h.logger.Warn("recovery backoff interrupted", "kind", ev.Kind, "error", err)
		}
		return true
	}
}

// Backoff returns base * 2^retry, capped at max
func Backoff(base, max time.Duration, retry int) time.Duration {
	if retry < 0 {
		retry = 0
	}
	delay := base
	for i := 0; i < retry && delay < max; i++ {
		delay *= 2
	}
	if delay > max {
		delay = max
	}
	return delay
}
