package evaluation

import (
	"fmt"
	"sort"
	"strings"

	"drivethru/internal/models"
)

// Metrics scores a finished scenario
type Metrics struct {
	ItemAccuracy      float64 `json:"item_accuracy"`
	Turns             int     `json:"turns"`
	ErrorCount        int     `json:"error_count"`
	ClarifyingTurns   int     `json:"clarifying_turns"`
	DurationMillis    int64   `json:"duration_ms"`
	ConsecutiveErrors int     `json:"consecutive_errors"`
}

// itemAccuracy is the share of expected lines present with the expected
// quantity, penalised by unexpected extra lines. An empty expectation is
// met only by an empty order.
func itemAccuracy(expected map[string]int, order models.Order) float64 {
	actual := quantities(order)
	if len(expected) == 0 {
		if len(actual) == 0 {
			return 1.0
		}
		return 0.0
	}

	matched := 0
	for name, qty := range expected {
		if actual[strings.ToLower(name)] == qty {
			matched++
		}
	}
	extra := 0
	for name := range actual {
		if _, ok := lowerKeys(expected)[name]; !ok {
			extra++
		}
	}
	return float64(matched) / float64(len(expected)+extra)
}

// checkExpectation lists every way the run missed the scenario's
// expectation
func checkExpectation(expect Expectation, result *EvaluationResult) []string {
	var failures []string
	if expect.State != "" && result.FinalState != expect.State {
		failures = append(failures, fmt.Sprintf("final state %s, want %s", result.FinalState, expect.State))
	}

	actual := quantities(result.Order)
	want := lowerKeys(expect.Items)
	names := make([]string, 0, len(want)+len(actual))
	for name := range want {
		names = append(names, name)
	}
	for name := range actual {
		if _, ok := want[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if actual[name] != want[name] {
			failures = append(failures, fmt.Sprintf("%s: got %d, want %d", name, actual[name], want[name]))
		}
	}

	if expect.Recovered && result.Metrics.ConsecutiveErrors != 0 {
		failures = append(failures, fmt.Sprintf("%d consecutive errors outstanding", result.Metrics.ConsecutiveErrors))
	}
	return failures
}

func quantities(order models.Order) map[string]int {
	out := make(map[string]int, len(order.Items))
	for _, item := range order.Items {
		out[strings.ToLower(item.Name)] += item.Quantity
	}
	return out
}

func lowerKeys(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}
