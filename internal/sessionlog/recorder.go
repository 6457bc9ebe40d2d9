// Package sessionlog records drive-thru conversations and persists them,
// one document per session.
package sessionlog

import (
	"context"
	"errors"
	"sync"
	"time"

	"drivethru/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session is not in the store
var ErrNotFound = errors.New("session not found")

// Turn is one exchange. The opening greeting has no customer text.
type Turn struct {
	Customer   string  `json:"customer,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Agent      string  `json:"agent"`
	State      string  `json:"state,omitempty"`
}

// OrderSummary is the order as it stood when a conversation ended
type OrderSummary struct {
	Items []models.LineItem `json:"items"`
	Total float64           `json:"total"`
}

// Conversation is one customer's visit
type Conversation struct {
	Timestamp       time.Time     `json:"timestamp"`
	Turns           []Turn        `json:"turns"`
	FinalOrder      *OrderSummary `json:"final_order"`
	Total           float64       `json:"total"`
	Success         bool          `json:"success"`
	DurationSeconds float64       `json:"duration"`
	TurnCount       int           `json:"turn_count"`
}

// Session groups the conversations handled by one running agent
type Session struct {
	ID            string         `json:"session_id"`
	StartTime     time.Time      `json:"start_time"`
	Conversations []Conversation `json:"conversations"`
}

// Store persists sessions
type Store interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
}

// Recorder accumulates conversations for a session and saves the session
// to its store after every finished conversation
type Recorder struct {
	mu      sync.Mutex
	store   Store
	now     func() time.Time
	session Session
	current *Conversation
}

// NewRecorder starts a session with a fresh UUID. A nil store keeps the log
// in memory only.
func NewRecorder(store Store) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	r.session = Session{ID: uuid.NewString(), StartTime: r.now()}
	return r
}

// SessionID returns the session identifier
func (r *Recorder) SessionID() string {
	return r.session.ID
}

// Begin opens a conversation with the agent's greeting
func (r *Recorder) Begin(greeting string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = &Conversation{Timestamp: r.now(), Turns: []Turn{}}
	if greeting != "" {
		r.current.Turns = append(r.current.Turns, Turn{Agent: greeting})
	}
}

// Record appends a turn, opening a conversation when none is in progress
func (r *Recorder) Record(customer string, confidence float64, agent, state string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		r.current = &Conversation{Timestamp: r.now(), Turns: []Turn{}}
	}
	r.current.Turns = append(r.current.Turns, Turn{
		Customer:   customer,
		Confidence: confidence,
		Agent:      agent,
		State:      state,
	})
	r.current.TurnCount++
}

// End closes the conversation in progress, appends it to the session and
// saves the session. A successful conversation carries the final order.
func (r *Recorder) End(ctx context.Context, order models.Order, success bool) (Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		r.current = &Conversation{Timestamp: r.now(), Turns: []Turn{}}
	}
	conv := *r.current
	r.current = nil

	conv.Success = success
	conv.DurationSeconds = r.now().Sub(conv.Timestamp).Seconds()
	if success {
		snapshot := order.Snapshot()
		conv.FinalOrder = &OrderSummary{Items: snapshot.Items, Total: snapshot.Total()}
		conv.Total = conv.FinalOrder.Total
	}
	r.session.Conversations = append(r.session.Conversations, conv)

	if r.store == nil {
		return conv, nil
	}
	return conv, r.store.Save(ctx, r.snapshot())
}

// Session returns a copy of the session so far
func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Recorder) snapshot() Session {
	s := r.session
	s.Conversations = append([]Conversation(nil), r.session.Conversations...)
	return s
}
