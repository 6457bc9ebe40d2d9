// Package recovery classifies conversation failures, tracks how often each
// kind occurs in a session, and chooses between retrying, clarifying and
// escalating.
package recovery

import "log/slog"

// Kind is the closed taxonomy of failures
type Kind string

const (
	KindASRFailure       Kind = "asr_failure"
	KindASRLowConfidence Kind = "asr_low_confidence"
	KindAPITimeout       Kind = "api_timeout"
	KindAPIRateLimit     Kind = "api_rate_limit"
	KindNetworkError     Kind = "network_error"
	KindItemNotFound     Kind = "menu_item_not_found"
	KindAmbiguousOrder   Kind = "ambiguous_order"
	KindEmptyOrder       Kind = "empty_order"
	KindInvalidState     Kind = "invalid_state"
	KindUnknown          Kind = "unknown_error"
)

// Kinds lists every failure kind
var Kinds = []Kind{
	KindASRFailure,
	KindASRLowConfidence,
	KindAPITimeout,
	KindAPIRateLimit,
	KindNetworkError,
	KindItemNotFound,
	KindAmbiguousOrder,
	KindEmptyOrder,
	KindInvalidState,
	KindUnknown,
}

// Severity grades how disruptive a failure is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// logLevel maps severity onto a log level
func (s Severity) logLevel() slog.Level {
	switch s {
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Event describes one failure occurrence
type Event struct {
	Kind        Kind
	Severity    Severity
	Message     string
	RetryCount  int
	MaxRetries  int
	UserMessage string // overrides the kind's default wording when set
}
