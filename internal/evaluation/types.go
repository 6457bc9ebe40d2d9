package evaluation

import (
	"drivethru/internal/conversation"
	"drivethru/internal/models"
	"drivethru/internal/recovery"
)

// Step is one scripted customer utterance with its recognition confidence
type Step struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Expectation is what a scenario must end with to pass
type Expectation struct {
	State conversation.State `json:"state"`
	// Items maps catalog names to the quantity the final order must hold
	Items map[string]int `json:"items"`
	// Recovered requires the consecutive error counter to be back at zero
	Recovered bool `json:"recovered"`
}

// Scenario is a scripted conversation
type Scenario struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Steps       []Step      `json:"steps"`
	Expect      Expectation `json:"expect"`
}

// TurnLog is one transcript line
type TurnLog struct {
	Customer   string             `json:"customer"`
	Confidence float64            `json:"confidence"`
	Agent      string             `json:"agent"`
	State      conversation.State `json:"state"`
}

// EvaluationResult is the outcome of running one scenario
type EvaluationResult struct {
	Model      string             `json:"model"`
	Scenario   string             `json:"scenario"`
	Passed     bool               `json:"passed"`
	Failures   []string           `json:"failures,omitempty"`
	FinalState conversation.State `json:"final_state"`
	Order      models.Order       `json:"order"`
	Total      float64            `json:"total"`
	Transcript []TurnLog          `json:"transcript"`
	Errors     recovery.Stats     `json:"errors"`
	Metrics    Metrics            `json:"metrics"`
}
