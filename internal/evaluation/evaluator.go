package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"drivethru/internal/conversation"
	"drivethru/internal/logging"
	"drivethru/internal/monitoring"
)

// ErrUnknownScenario is returned for an id with no registered scenario
var ErrUnknownScenario = errors.New("unknown scenario")

// ManagerFactory builds a fresh conversation manager for each run
type ManagerFactory func() (*conversation.Manager, error)

// Options configures an Evaluator
type Options struct {
	// Model labels results with the classifier or provider under test
	Model   string
	Monitor *monitoring.Monitor
	Logger  *slog.Logger
}

// Evaluator runs scripted scenarios through fresh conversations and scores
// the outcome
type Evaluator struct {
	scenarios  map[string]*Scenario
	newManager ManagerFactory
	model      string
	monitor    *monitoring.Monitor
	logger     *slog.Logger
}

// NewEvaluator creates an evaluator with the built-in scenarios
func NewEvaluator(factory ManagerFactory, opts Options) *Evaluator {
	e := &Evaluator{
		scenarios:  make(map[string]*Scenario),
		newManager: factory,
		model:      opts.Model,
		monitor:    opts.Monitor,
		logger:     logging.WithComponent(opts.Logger, "evaluation"),
	}
	if e.model == "" {
		e.model = "rules"
	}
	for _, s := range builtinScenarios() {
		e.Register(s)
	}
	return e
}

// Register adds or replaces a scenario
func (e *Evaluator) Register(s Scenario) {
	e.scenarios[s.ID] = &s
}

// HasScenario checks if a scenario exists
func (e *Evaluator) HasScenario(id string) bool {
	_, exists := e.scenarios[id]
	return exists
}

// Scenarios returns all scenarios ordered by id
func (e *Evaluator) Scenarios() []Scenario {
	scenarios := make([]Scenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		scenarios = append(scenarios, *s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// Run plays one scenario against a fresh manager
func (e *Evaluator) Run(ctx context.Context, id string) (*EvaluationResult, error) {
	scenario, exists := e.scenarios[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
	}

	m, err := e.newManager()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation manager: %w", err)
	}

	e.logger.Info("running scenario", "scenario", id, "model", e.model, "steps", len(scenario.Steps))
	start := time.Now()

	result := &EvaluationResult{
		Model:      e.model,
		Scenario:   id,
		Transcript: make([]TurnLog, 0, len(scenario.Steps)),
	}
	for _, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reply := m.ProcessInput(ctx, step.Text, step.Confidence)
		result.Transcript = append(result.Transcript, TurnLog{
			Customer:   step.Text,
			Confidence: step.Confidence,
			Agent:      reply.Text,
			State:      reply.State,
		})
		if reply.State == conversation.Clarifying {
			result.Metrics.ClarifyingTurns++
		}
	}

	diag := m.Diagnostics()
	result.FinalState = diag.State
	result.Order = m.Order()
	result.Total = result.Order.Total()
	result.Errors = diag.ErrorStats
	result.Metrics.Turns = len(scenario.Steps)
	result.Metrics.ErrorCount = diag.ErrorStats.TotalErrors
	result.Metrics.ConsecutiveErrors = diag.ConsecutiveErrors
	result.Metrics.ItemAccuracy = itemAccuracy(scenario.Expect.Items, result.Order)
	result.Metrics.DurationMillis = time.Since(start).Milliseconds()

	result.Failures = checkExpectation(scenario.Expect, result)
	result.Passed = len(result.Failures) == 0

	if e.monitor != nil {
		e.monitor.RecordScenario(id, result.Passed)
		e.monitor.RecordConversation(result.FinalState == conversation.Goodbye, result.Total, result.Metrics.ErrorCount)
	}
	e.logger.Info("scenario finished", "scenario", id, "passed", result.Passed, "failures", len(result.Failures))
	return result, nil
}

// RunAll plays every scenario in id order
func (e *Evaluator) RunAll(ctx context.Context) ([]*EvaluationResult, error) {
	var results []*EvaluationResult
	for _, s := range e.Scenarios() {
		result, err := e.Run(ctx, s.ID)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func say(text string) Step {
	return Step{Text: text, Confidence: 1.0}
}

// builtinScenarios covers the happy path, modifications, menu questions and
// the main recovery paths
func builtinScenarios() []Scenario {
	return []Scenario{
		{
			ID:          "simple_order",
			Name:        "Simple Order",
			Description: "Greeting, one item, confirmation and payment.",
			Steps:       []Step{say("Hi"), say("I want two crunchy tacos"), say("That's all"), say("Yes"), say("Thanks")},
			Expect: Expectation{
				State: conversation.Goodbye,
				Items: map[string]int{"Crunchy Taco": 2},
			},
		},
		{
			ID:          "modified_order",
			Name:        "Modified Order",
			Description: "Several items with a modification applied to the last one.",
			Steps: []Step{
				say("Hi"),
				say("I want three crunchy tacos"),
				say("No lettuce on those"),
				say("And a Baja Blast"),
				say("Add nacho fries too"),
				say("That's all"),
				say("Yes"),
				say("Thanks"),
			},
			Expect: Expectation{
				State: conversation.Goodbye,
				Items: map[string]int{"Crunchy Taco": 3, "Baja Blast": 1, "Nacho Fries": 1},
			},
		},
		{
			ID:          "menu_query",
			Name:        "Menu Questions",
			Description: "Price and dietary questions before ordering.",
			Steps: []Step{
				say("Hi"),
				say("What's your cheapest item?"),
				say("Do you have vegetarian options?"),
				say("I'll take a bean burrito"),
				say("That's all"),
				say("Yes"),
				say("Thanks"),
			},
			Expect: Expectation{
				State: conversation.Goodbye,
				Items: map[string]int{"Bean Burrito": 1},
			},
		},
		{
			ID:          "unknown_item",
			Name:        "Unknown Item",
			Description: "An item that is not on the menu, then a valid order.",
			Steps: []Step{
				say("Hi"),
				say("I want a pizza"),
				say("Okay, two soft tacos then"),
				say("That's all"),
				say("Yes"),
				say("Thanks"),
			},
			Expect: Expectation{
				State:     conversation.Goodbye,
				Items:     map[string]int{"Soft Taco": 2},
				Recovered: true,
			},
		},
		{
			ID:          "noisy_audio",
			Name:        "Noisy Audio",
			Description: "Silence and a low-confidence transcription that needs clarifying.",
			Steps: []Step{
				say(""),
				{Text: "I want a crunchy taco", Confidence: 0.3},
				say("Yes"),
				say("That's all"),
				say("Yes"),
				say("Thanks"),
			},
			Expect: Expectation{
				State:     conversation.Goodbye,
				Items:     map[string]int{"Crunchy Taco": 1},
				Recovered: true,
			},
		},
		{
			ID:          "confused_customer",
			Name:        "Confused Customer",
			Description: "The customer gets lost and the agent steers back to ordering.",
			Steps: []Step{
				say("Hi"),
				say("Wait, what?"),
				say("Two soft tacos"),
				say("That's all"),
				say("Yes"),
				say("Thanks"),
			},
			Expect: Expectation{
				State:     conversation.Goodbye,
				Items:     map[string]int{"Soft Taco": 2},
				Recovered: true,
			},
		},
	}
}
