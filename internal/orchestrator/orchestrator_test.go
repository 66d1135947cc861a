package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/edit"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/knowledge"
	"ai-trip-planner/internal/poi"
	"ai-trip-planner/internal/scheduler"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/travel"
	"ai-trip-planner/internal/trip"

	"github.com/paulmach/orb"
)

// MockSource serves a fixed per-city catalog, honoring constraints the same
// way the HTTP source does.
type MockSource struct {
	catalog map[string][]trip.POI
}

func (m *MockSource) SearchPOIs(ctx context.Context, city string, interests []string, c poi.SearchConstraints) ([]trip.POI, error) {
	return poi.Filter(m.catalog[city], c), nil
}

// MockClassifier pops scripted classifications, one per turn.
type MockClassifier struct {
	queue []intent.Classification
}

func (m *MockClassifier) Classify(ctx context.Context, utterance string, sc intent.SessionContext) (intent.Classification, shared.AgentMeta, error) {
	if len(m.queue) == 0 {
		return intent.Classification{Intent: intent.IntentOther}, shared.AgentMeta{AgentName: "Classifier"}, nil
	}
	c := m.queue[0]
	m.queue = m.queue[1:]
	return c, shared.AgentMeta{AgentName: "Classifier"}, nil
}

type MockExplainer struct {
	explanation knowledge.Explanation
}

func (m *MockExplainer) Explain(ctx context.Context, question, referent string, it *trip.Itinerary) (knowledge.Explanation, shared.AgentMeta, error) {
	return m.explanation, shared.AgentMeta{AgentName: "Explainer"}, nil
}

func cityCatalog(city string, n int) []trip.POI {
	categories := []string{"fort", "museum", "food", "market", "palace", "temple"}
	pois := make([]trip.POI, 0, n)
	for i := 0; i < n; i++ {
		cat := categories[i%len(categories)]
		pois = append(pois, trip.POI{
			Name:     fmt.Sprintf("%s %s %d", city, cat, i+1),
			Category: cat,
			// Tight grid around one center so every leg is walkable.
			Location:     orb.Point{75.82 + float64(i%4)*0.004, 26.92 + float64(i/4)*0.004},
			VisitMinutes: 60,
			Indoor:       i%2 == 0,
			SourceID:     fmt.Sprintf("%s-poi-%d", strings.ToLower(city), i+1),
			Rating:       4.0 + float64(i%5)*0.1,
			Description:  "history and food highlights",
		})
	}
	return pois
}

func newTestOrchestrator(classifier *MockClassifier) *Orchestrator {
	source := &MockSource{catalog: map[string][]trip.POI{
		"Jaipur": cityCatalog("Jaipur", 18),
		"Mumbai": cityCatalog("Mumbai", 18),
	}}
	builder := scheduler.NewBuilder(source, travel.HaversineEstimator{})
	return New(
		session.NewStore(30*time.Minute),
		classifier,
		builder,
		edit.NewEngine(builder),
		&MockExplainer{explanation: knowledge.Explanation{Text: "Forts open early.", Cited: []string{"kb-1"}}},
		Defaults{City: "Jaipur", DurationDays: 3, Pace: trip.PaceModerate, Interests: []string{"sightseeing", "food"}},
	)
}

// A complete first utterance plans with zero clarifying questions.
func TestPlanCompleteUtterance(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{{
		Intent: intent.IntentPlanTrip,
		Entities: intent.Entities{
			City: "Jaipur", DurationDays: 3, Interests: []string{"food", "history"}, Pace: "relaxed",
		},
		Confidence: 0.95,
	}}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()

	resp, err := o.HandleTurn(context.Background(), id, "Plan 3 relaxed days in Jaipur, I love food and history")
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if resp.Status != StatusPlanned {
		t.Fatalf("expected planned, got %s (%s)", resp.Status, resp.Message)
	}
	if len(resp.Itinerary.Days) != 3 {
		t.Errorf("expected 3 days, got %d", len(resp.Itinerary.Days))
	}
	for _, day := range resp.Itinerary.Days {
		n := len(day.Activities())
		if n < 2 || n > 3 {
			t.Errorf("day %d has %d activities, outside the relaxed band", day.Day, n)
		}
	}
	if resp.Evaluation == nil || resp.Evaluation.Feasibility == nil || !resp.Evaluation.Feasibility.Passed() {
		t.Errorf("expected a passing feasibility evaluation: %+v", resp.Evaluation)
	}

	snap, _ := o.store.Get(id)
	if snap.State != session.StatePlanned {
		t.Errorf("expected PLANNED state, got %s", snap.State)
	}
	if snap.ClarifyingQuestionsAsked != 0 {
		t.Errorf("expected zero clarifying questions, got %d", snap.ClarifyingQuestionsAsked)
	}
}

// Partial preferences trigger one clarifying question per turn, in field
// order, until the plan is built.
func TestClarifyingSequence(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{
		{Intent: intent.IntentPlanTrip, Entities: intent.Entities{City: "Mumbai"}, Confidence: 0.9},
		{Intent: intent.IntentClarifyAnswer, Entities: intent.Entities{DurationDays: 4}, Confidence: 0.9},
		{Intent: intent.IntentClarifyAnswer, Entities: intent.Entities{Interests: []string{"food"}}, Confidence: 0.9},
		{Intent: intent.IntentClarifyAnswer, Entities: intent.Entities{Pace: "moderate"}, Confidence: 0.9},
	}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()
	ctx := context.Background()

	wantQuestions := []string{"days", "enjoy", "pace"}
	utterances := []string{"Plan a trip to Mumbai", "four days", "food", "moderate"}
	for i, utterance := range utterances {
		resp, err := o.HandleTurn(ctx, id, utterance)
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
		if i < len(wantQuestions) {
			if resp.Status != StatusQuestion {
				t.Fatalf("turn %d: expected a question, got %s (%s)", i, resp.Status, resp.Message)
			}
			if !strings.Contains(strings.ToLower(resp.Question), wantQuestions[i]) {
				t.Errorf("turn %d: question %q does not ask about %q", i, resp.Question, wantQuestions[i])
			}
			continue
		}
		if resp.Status != StatusPlanned {
			t.Fatalf("final turn: expected planned, got %s (%s)", resp.Status, resp.Message)
		}
		if len(resp.Itinerary.Days) != 4 {
			t.Errorf("expected 4 days, got %d", len(resp.Itinerary.Days))
		}
	}
}

// A scoped pace edit changes only its day; the others stay byte-identical.
func TestEditChangesOnlyItsDay(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{
		{
			Intent:     intent.IntentPlanTrip,
			Entities:   intent.Entities{City: "Jaipur", DurationDays: 3, Interests: []string{"history"}, Pace: "moderate"},
			Confidence: 0.95,
		},
		{
			Intent:     intent.IntentEditItinerary,
			Entities:   intent.Entities{EditOp: "CHANGE_PACE", Day: 2, Pace: "relaxed"},
			Confidence: 0.9,
		},
	}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()
	ctx := context.Background()

	planned, err := o.HandleTurn(ctx, id, "3 moderate days in Jaipur, history please")
	if err != nil || planned.Status != StatusPlanned {
		t.Fatalf("plan turn failed: %v %s", err, planned.Status)
	}
	before := planned.Itinerary

	edited, err := o.HandleTurn(ctx, id, "make day 2 more relaxed")
	if err != nil {
		t.Fatalf("edit turn failed: %v", err)
	}
	if edited.Status != StatusEdited {
		t.Fatalf("expected edited, got %s (%s)", edited.Status, edited.Message)
	}

	for _, d := range []int{1, 3} {
		b, _ := json.Marshal(before.Days[d-1])
		a, _ := json.Marshal(edited.Itinerary.Days[d-1])
		if string(b) != string(a) {
			t.Errorf("day %d changed by a day-2 edit", d)
		}
	}
	if n := len(edited.Itinerary.Days[1].Activities()); n < 2 || n > 3 {
		t.Errorf("day 2 has %d activities, outside the relaxed band", n)
	}
	if edited.Evaluation == nil || edited.Evaluation.EditCorrectness == nil || !edited.Evaluation.EditCorrectness.Passed() {
		t.Errorf("expected passing edit correctness: %+v", edited.Evaluation)
	}
}

// An unknown city fails conversationally with at least three alternatives.
func TestUnknownCitySuggestsAlternatives(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{{
		Intent:     intent.IntentPlanTrip,
		Entities:   intent.Entities{City: "XyzCity", DurationDays: 2, Interests: []string{"food"}, Pace: "moderate"},
		Confidence: 0.9,
	}}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()

	resp, err := o.HandleTurn(context.Background(), id, "two days in XyzCity")
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if resp.Status != StatusError {
		t.Fatalf("expected error status, got %s", resp.Status)
	}
	if len(resp.Suggestions) < 3 {
		t.Errorf("expected at least 3 alternatives, got %v", resp.Suggestions)
	}

	// The session stays in the clarifying loop so the user can answer with
	// another city.
	snap, _ := o.store.Get(id)
	if snap.State != session.StateClarifying {
		t.Errorf("expected CLARIFYING after unknown city, got %s", snap.State)
	}
	if snap.Preferences.City != "" {
		t.Errorf("failed city must be cleared, got %q", snap.Preferences.City)
	}
}

// Edits are only accepted once a plan exists.
func TestEditBeforePlanAsksToPlanFirst(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{{
		Intent:     intent.IntentEditItinerary,
		Entities:   intent.Entities{EditOp: "ADD_DAY"},
		Confidence: 0.9,
	}}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()

	resp, err := o.HandleTurn(context.Background(), id, "add another day")
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if resp.Status != StatusQuestion {
		t.Errorf("expected a question, got %s", resp.Status)
	}
}

// Low classifier confidence asks instead of guessing a mutation.
func TestLowConfidenceEditAsks(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{
		{
			Intent:     intent.IntentPlanTrip,
			Entities:   intent.Entities{City: "Jaipur", DurationDays: 2, Interests: []string{"food"}, Pace: "moderate"},
			Confidence: 0.95,
		},
		{
			Intent:     intent.IntentEditItinerary,
			Entities:   intent.Entities{EditOp: "REMOVE_ACTIVITY", Day: 1, Block: "morning", Activity: "fort"},
			Confidence: 0.3,
		},
	}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()
	ctx := context.Background()

	if resp, _ := o.HandleTurn(ctx, id, "2 moderate days in Jaipur, food"); resp.Status != StatusPlanned {
		t.Fatalf("plan turn failed: %s", resp.Status)
	}
	resp, err := o.HandleTurn(ctx, id, "maybe drop that thing?")
	if err != nil {
		t.Fatalf("edit turn failed: %v", err)
	}
	if resp.Status != StatusQuestion {
		t.Errorf("expected a clarifying question, got %s", resp.Status)
	}
}

// Explanations are gated by grounding and never mutate the plan.
func TestExplainTurn(t *testing.T) {
	classifier := &MockClassifier{queue: []intent.Classification{
		{
			Intent:     intent.IntentPlanTrip,
			Entities:   intent.Entities{City: "Jaipur", DurationDays: 2, Interests: []string{"history"}, Pace: "moderate"},
			Confidence: 0.95,
		},
		{
			Intent:     intent.IntentExplain,
			Entities:   intent.Entities{Referent: "Jaipur fort 1"},
			Confidence: 0.9,
		},
	}}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()
	ctx := context.Background()

	planned, _ := o.HandleTurn(ctx, id, "2 moderate days in Jaipur, history")
	if planned.Status != StatusPlanned {
		t.Fatalf("plan turn failed: %s", planned.Status)
	}

	resp, err := o.HandleTurn(ctx, id, "why the fort in the morning?")
	if err != nil {
		t.Fatalf("explain turn failed: %v", err)
	}
	if resp.Status != StatusExplained {
		t.Fatalf("expected explained, got %s (%s)", resp.Status, resp.Message)
	}
	if resp.Explanation == nil || len(resp.Explanation.Cited) == 0 {
		t.Errorf("expected a cited explanation: %+v", resp.Explanation)
	}

	snap, _ := o.store.Get(id)
	b, _ := json.Marshal(planned.Itinerary)
	a, _ := json.Marshal(snap.Itinerary)
	if string(b) != string(a) {
		t.Error("explain turn mutated the itinerary")
	}
}

// After six clarifying questions the plan proceeds with defaults and says so.
func TestDefaultsAfterQuestionBudget(t *testing.T) {
	queue := make([]intent.Classification, 0, 8)
	// Seven turns that never fill any field.
	for i := 0; i < 7; i++ {
		queue = append(queue, intent.Classification{Intent: intent.IntentClarifyAnswer, Confidence: 0.9})
	}
	classifier := &MockClassifier{queue: queue}
	o := newTestOrchestrator(classifier)
	id := o.NewSession()
	ctx := context.Background()

	var resp Response
	var err error
	for i := 0; i < 7; i++ {
		resp, err = o.HandleTurn(ctx, id, "hmm")
		if err != nil {
			t.Fatalf("turn %d failed: %v", i, err)
		}
	}
	if resp.Status != StatusPlanned {
		t.Fatalf("expected a default plan after the budget, got %s (%s)", resp.Status, resp.Message)
	}
	if len(resp.UsedDefaults) != 4 {
		t.Errorf("expected all four fields defaulted, got %v", resp.UsedDefaults)
	}
	if resp.Itinerary.City != "Jaipur" {
		t.Errorf("expected the default city, got %s", resp.Itinerary.City)
	}
}
