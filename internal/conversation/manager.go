package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"drivethru/internal/intent"
	"drivethru/internal/logging"
	"drivethru/internal/menu"
	"drivethru/internal/models"
	"drivethru/internal/recovery"
	"drivethru/internal/respond"
)

const (
	lowHearingMessage = "I'm having trouble hearing you. Is everything okay?"
	freshStartMessage = "Let's start fresh. What can I get for you?"
)

// Menu is the retrieval surface the conversation needs
type Menu interface {
	Search(ctx context.Context, query string, topK int) ([]menu.SearchResult, error)
	Recommend(current []string, subtotal float64) []models.CatalogItem
	CategoryItems(category models.Category) []models.CatalogItem
	Sampler() []models.CatalogItem
}

// Observer receives per-turn signals, typically for metrics
type Observer interface {
	ObserveTurn(state string)
	ObserveClassifier(d time.Duration)
	ObserveOrderValue(total float64)
}

// Thresholds tune when the conversation accepts, clarifies or gives up
type Thresholds struct {
	LowConfidence        float64 // input confidence below this takes the low-confidence path
	Match                float64 // search score a menu match must exceed to be added
	ClarifyBelow         float64 // unconfirmed lines below this trigger Clarifying on confirm
	MaxConsecutiveErrors int
	ClassifierAttempts   int
	HistoryWindow        int
}

// DefaultThresholds returns the standard tuning
func DefaultThresholds() Thresholds {
	return Thresholds{
		LowConfidence:        0.5,
		Match:                0.5,
		ClarifyBelow:         0.7,
		MaxConsecutiveErrors: 3,
		ClassifierAttempts:   3,
		HistoryWindow:        5,
	}
}

// Options configures a Manager
type Options struct {
	Menu       Menu
	Classifier intent.Classifier
	// Fallback classifies low-confidence input when Classifier fails
	Fallback   intent.Classifier
	Recovery   *recovery.Handler
	Repair     *recovery.Repair
	Phraser    *respond.Generator
	Thresholds Thresholds
	Observer   Observer
	Logger     *slog.Logger
}

// Reply is the outcome of one turn
type Reply struct {
	Text       string  `json:"response"`
	State      State   `json:"state"`
	Customer   string  `json:"customer"`
	Confidence float64 `json:"confidence"`
}

// Manager owns a single session and processes its turns one at a time
type Manager struct {
	mu         sync.Mutex
	menu       Menu
	classifier intent.Classifier
	fallback   intent.Classifier
	recovery   *recovery.Handler
	repair     *recovery.Repair
	phraser    *respond.Generator
	limits     Thresholds
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
	session    *Session
}

// NewManager creates a manager with a fresh session
func NewManager(opts Options) (*Manager, error) {
	if opts.Menu == nil {
		return nil, errors.New("conversation: menu is required")
	}
	if opts.Classifier == nil {
		return nil, errors.New("conversation: classifier is required")
	}

	limits := opts.Thresholds
	defaults := DefaultThresholds()
	if limits.LowConfidence <= 0 {
		limits.LowConfidence = defaults.LowConfidence
	}
	if limits.Match <= 0 {
		limits.Match = defaults.Match
	}
	if limits.ClarifyBelow <= 0 {
		limits.ClarifyBelow = defaults.ClarifyBelow
	}
	if limits.MaxConsecutiveErrors <= 0 {
		limits.MaxConsecutiveErrors = defaults.MaxConsecutiveErrors
	}
	if limits.ClassifierAttempts <= 0 {
		limits.ClassifierAttempts = defaults.ClassifierAttempts
	}
	if limits.HistoryWindow <= 0 {
		limits.HistoryWindow = defaults.HistoryWindow
	}

	m := &Manager{
		menu:       opts.Menu,
		classifier: opts.Classifier,
		fallback:   opts.Fallback,
		recovery:   opts.Recovery,
		repair:     opts.Repair,
		phraser:    opts.Phraser,
		limits:     limits,
		observer:   opts.Observer,
		logger:     logging.WithComponent(opts.Logger, "conversation"),
		now:        time.Now,
		session:    newSession(),
	}
	if m.recovery == nil {
		m.recovery = recovery.NewHandler(recovery.Options{Logger: opts.Logger})
	}
	if m.repair == nil {
		m.repair = recovery.NewRepair()
	}
	return m, nil
}

// ProcessInput handles one customer turn and returns the agent's reply.
// It never fails: every error becomes a customer-facing message.
func (m *Manager) ProcessInput(ctx context.Context, text string, confidence float64) Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	s.Turns++

	var reply string
	switch {
	case strings.TrimSpace(text) == "":
		reply = m.handleEmptyInput(ctx)
	case s.State == Goodbye:
		// terminal; only the goodbye handler answers
		reply = m.handleTurn(ctx, text)
	case confidence < m.limits.LowConfidence:
		reply = m.handleLowConfidence(ctx, text, confidence)
	case m.repair.DetectConfusion(text):
		reply = m.handleConfusion()
	default:
		reply = m.handleTurn(ctx, text)
	}

	if m.observer != nil {
		m.observer.ObserveTurn(string(s.State))
	}
	m.logger.Debug("turn processed",
		"session_id", s.ID,
		"state", s.State,
		"order_items", len(s.Order.Items),
		"consecutive_errors", s.ConsecutiveErrors,
	)

	return Reply{Text: reply, State: s.State, Customer: text, Confidence: confidence}
}

func (m *Manager) handleEmptyInput(ctx context.Context) string {
	s := m.session
	s.ConsecutiveErrors++

	_, message := m.recovery.Handle(ctx, s.Errors, recovery.Event{
		Kind:       recovery.KindASRFailure,
		Severity:   recovery.SeverityLow,
		Message:    "No input received",
		RetryCount: s.ConsecutiveErrors,
	})
	if s.ConsecutiveErrors >= m.limits.MaxConsecutiveErrors {
		return lowHearingMessage
	}
	return message
}

// handleLowConfidence makes a best-effort extraction and asks the customer
// to confirm the first candidate item. A failing classifier is logged and
// the fallback classifier is tried instead.
func (m *Manager) handleLowConfidence(ctx context.Context, text string, confidence float64) string {
	s := m.session
	m.logger.Info("low confidence input", "confidence", confidence)

	result, err := m.classifier.Classify(ctx, text, nil)
	if err != nil {
		m.logger.Warn("low confidence extraction failed", "error", err, "fallback", m.fallback != nil)
		if m.fallback != nil {
			result, err = m.fallback.Classify(ctx, text, nil)
		}
	}

	if err == nil && result.HasItems() {
		s.pending = &result
		s.State = Clarifying
		return m.repair.GenerateClarification(recovery.IssueUnclearItem, map[string]string{"item": result.Items[0]})
	}

	_, message := m.recovery.Handle(ctx, s.Errors, recovery.Event{
		Kind:     recovery.KindASRLowConfidence,
		Severity: recovery.SeverityLow,
		Message:  fmt.Sprintf("Low confidence: %.2f", confidence),
	})
	return message
}

func (m *Manager) handleConfusion() string {
	s := m.session
	m.logger.Info("customer appears confused", "state", s.State)

	message := m.repair.SuggestRecovery(string(s.State))
	s.State = ErrorRecovery
	return message
}

func (m *Manager) handleTurn(ctx context.Context, text string) string {
	s := m.session
	s.History = append(s.History, "Customer: "+text)

	result, err := m.classify(ctx, text)
	if err != nil {
		return m.handleClassifierFailure(ctx, err)
	}

	reply, next, err := m.dispatch(ctx, result)
	if err == nil {
		err = checkTransition(s.State, next)
	}
	if err != nil {
		return m.handleUnexpected(ctx, err)
	}

	if next == Payment && s.State != Payment && m.observer != nil {
		m.observer.ObserveOrderValue(s.Order.Total())
	}
	s.State = next
	s.History = append(s.History, "Agent: "+reply)
	s.ConsecutiveErrors = 0
	s.LastSuccessfulState = next
	return reply
}

// classify calls the classifier up to the configured number of attempts,
// reporting each failed attempt except the last to the recovery handler
func (m *Manager) classify(ctx context.Context, text string) (intent.Result, error) {
	s := m.session
	history := s.recentHistory(m.limits.HistoryWindow)

	var lastErr error
	for attempt := 0; attempt < m.limits.ClassifierAttempts; attempt++ {
		start := time.Now()
		result, err := m.classifier.Classify(ctx, text, history)
		if m.observer != nil {
			m.observer.ObserveClassifier(time.Since(start))
		}
		if err == nil {
			return result, nil
		}

		lastErr = err
		m.logger.Warn("intent detection attempt failed", "attempt", attempt+1, "error", err)
		if attempt < m.limits.ClassifierAttempts-1 {
			m.recovery.Handle(ctx, s.Errors, recovery.Event{
				Kind:       upstreamKind(err),
				Severity:   recovery.SeverityMedium,
				Message:    err.Error(),
				RetryCount: attempt,
			})
		}
	}
	return intent.Result{}, &intent.ClassifierError{Attempts: m.limits.ClassifierAttempts, Err: lastErr}
}

func (m *Manager) handleClassifierFailure(ctx context.Context, err error) string {
	s := m.session
	s.ConsecutiveErrors++

	_, message := m.recovery.Handle(ctx, s.Errors, recovery.Event{
		Kind:       recovery.KindAPITimeout,
		Severity:   recovery.SeverityHigh,
		Message:    err.Error(),
		RetryCount: s.ConsecutiveErrors,
	})
	return message
}

// handleUnexpected counts a failed dispatch and, once too many failures
// have piled up, rolls the state back to the last one that succeeded
func (m *Manager) handleUnexpected(ctx context.Context, err error) string {
	s := m.session
	s.ConsecutiveErrors++
	m.logger.Error("unexpected error", "error", err, "state", s.State)

	_, message := m.recovery.Handle(ctx, s.Errors, recovery.Event{
		Kind:       recovery.KindUnknown,
		Severity:   recovery.SeverityHigh,
		Message:    err.Error(),
		RetryCount: s.ConsecutiveErrors,
	})

	if s.ConsecutiveErrors >= m.limits.MaxConsecutiveErrors {
		s.State = s.LastSuccessfulState
		return freshStartMessage
	}
	return message
}

// dispatch runs the current state's handler, converting panics to errors
func (m *Manager) dispatch(ctx context.Context, result intent.Result) (reply string, next State, err error) {
	state := m.session.State
	h, ok := handlers[state]
	if !ok {
		return "", state, fmt.Errorf("no handler for state %q", state)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s handler panicked: %v", state, p)
		}
	}()
	return h(m, ctx, result)
}

func upstreamKind(err error) recovery.Kind {
	var netErr net.Error
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return recovery.KindAPITimeout
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return recovery.KindAPIRateLimit
	case errors.As(err, &netErr):
		return recovery.KindNetworkError
	default:
		return recovery.KindAPITimeout
	}
}

// Reset starts over for a new customer
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = newSession()
}

// State returns the current conversation state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.State
}

// SessionID returns the current session's identifier
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ID
}

// Order returns a copy of the current order
func (m *Manager) Order() models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Order.Snapshot()
}

// Diagnostics reports session health
func (m *Manager) Diagnostics() Diagnostics {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	d := Diagnostics{
		SessionID:          s.ID,
		State:              s.State,
		OrderItems:         len(s.Order.Items),
		ConsecutiveErrors:  s.ConsecutiveErrors,
		ErrorStats:         s.Errors.Stats(),
		ConversationLength: len(s.History),
		Turns:              s.Turns,
	}
	if s.pending != nil {
		d.PendingItems = append(d.PendingItems, s.pending.Items...)
	}
	return d
}

// ShouldEscalate lists the error kinds that have recurred often enough in
// this session to warrant a human
func (m *Manager) ShouldEscalate() []recovery.Kind {
	m.mu.Lock()
	defer m.mu.Unlock()

	var kinds []recovery.Kind
	for _, kind := range recovery.Kinds {
		if m.recovery.ShouldEscalate(m.session.Errors, kind) {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
