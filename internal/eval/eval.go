// Package eval gates every itinerary the planner returns: feasibility of the
// schedule, scope-correctness of edits, and grounding of facts to sources.
package eval

import (
	"fmt"

	"ai-trip-planner/internal/trip"
)

// Result is one evaluator's verdict: a score in [0,1], hard violations, and
// soft warnings. The orchestrator auto-corrects on violations and forwards
// warnings to the user.
type Result struct {
	Name          string   `json:"name"`
	Score         float64  `json:"score"`
	Violations    []string `json:"violations,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	UncertainData []string `json:"uncertain_data,omitempty"`
}

// Passed reports whether the result has no hard violations.
func (r Result) Passed() bool {
	return len(r.Violations) == 0
}

// Evaluation bundles the evaluator results for one turn.
type Evaluation struct {
	Feasibility     *Result `json:"feasibility,omitempty"`
	EditCorrectness *Result `json:"edit_correctness,omitempty"`
	Grounding       *Result `json:"grounding,omitempty"`
}

// Run invokes an evaluator, converting a panic inside it into an
// EvaluationError so a broken checker aborts the turn instead of the process.
func Run(name string, fn func() Result) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = trip.NewEvaluationError(name, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn(), nil
}

// scorecard tallies weighted checks into a score.
type scorecard struct {
	passed, total float64
}

func (s *scorecard) check(ok bool, weight float64) {
	s.total += weight
	if ok {
		s.passed += weight
	}
}

func (s *scorecard) score() float64 {
	if s.total == 0 {
		return 1.0
	}
	return s.passed / s.total
}
