package intent

import (
	"context"
	"errors"
	"testing"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/trip"
)

type MockTextGenerator struct {
	Response string
	Err      error
	Calls    int
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Calls++
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

func TestNormalizeUtterance(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plan a trip for tree days", "plan a trip for three days"},
		{"stay for to days", "stay for two days"},
		{"a trip for for days", "a trip for four days"},
		{"I'd like to visit Jaipur", "I'd like to visit Jaipur"},
		{"too expensive for me", "too expensive for me"},
		{"won day in Mumbai", "one day in Mumbai"},
	}
	for _, c := range cases {
		if got := NormalizeUtterance(c.in); got != c.want {
			t.Errorf("NormalizeUtterance(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClassifyParsesValidResponse(t *testing.T) {
	gen := &MockTextGenerator{
		Response: `{"intent": "PLAN_TRIP", "entities": {"city": "Jaipur", "duration_days": 3, "interests": ["food"], "pace": "relaxed"}, "confidence": 0.93}`,
	}
	ex := NewExtractor(gen)

	c, meta, err := ex.Classify(context.Background(), "3 relaxed days in Jaipur eating everything", SessionContext{State: "AWAITING_PREFERENCES"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if c.Intent != IntentPlanTrip {
		t.Errorf("expected PLAN_TRIP, got %s", c.Intent)
	}
	if c.Entities.City != "Jaipur" || c.Entities.DurationDays != 3 {
		t.Errorf("entities not carried through: %+v", c.Entities)
	}
	if meta.AgentName != "Classifier" {
		t.Errorf("unexpected agent name %q", meta.AgentName)
	}
}

func TestClassifyRejectsOffSchemaOutput(t *testing.T) {
	cases := []string{
		"Sure! Here is your trip plan.",
		`{"intent": "BOOK_FLIGHT", "confidence": 0.9}`,
		`{"intent": "PLAN_TRIP", "confidence": 7}`,
		`{"intent": "EDIT_ITINERARY", "entities": {"day": -2}, "confidence": 0.8}`,
	}
	for _, resp := range cases {
		ex := NewExtractor(&MockTextGenerator{Response: resp})
		c, _, err := ex.Classify(context.Background(), "anything", SessionContext{})
		if err != nil {
			t.Fatalf("Classify must not error on bad output: %v", err)
		}
		if c.Intent != IntentOther || c.Confidence != 0 {
			t.Errorf("response %q: expected OTHER/0, got %s/%f", resp, c.Intent, c.Confidence)
		}
	}
}

func TestClassifyRetriesTimeoutThenDegrades(t *testing.T) {
	gen := &MockTextGenerator{Err: context.DeadlineExceeded}
	ex := NewExtractor(gen)

	c, _, err := ex.Classify(context.Background(), "plan something", SessionContext{})
	if err != nil {
		t.Fatalf("timeout must degrade, not error: %v", err)
	}
	if gen.Calls != 2 {
		t.Errorf("expected one retry (2 calls), got %d", gen.Calls)
	}
	if c.Intent != IntentOther || c.Confidence != 0 {
		t.Errorf("expected OTHER/0 after timeouts, got %s/%f", c.Intent, c.Confidence)
	}
}

func TestClassifyDoesNotRetryHardErrors(t *testing.T) {
	gen := &MockTextGenerator{Err: errors.New("401 unauthorized")}
	ex := NewExtractor(gen)

	if _, _, err := ex.Classify(context.Background(), "plan something", SessionContext{}); err != nil {
		t.Fatalf("hard errors also degrade to OTHER: %v", err)
	}
	if gen.Calls != 1 {
		t.Errorf("expected no retry on a non-timeout error, got %d calls", gen.Calls)
	}
}

func TestMergeIntoPreferences(t *testing.T) {
	prefs := trip.Preferences{City: "Jaipur", DurationDays: 3}
	merged := MergeIntoPreferences(prefs, Entities{Pace: "Relaxed", Interests: []string{"history"}})

	if merged.City != "Jaipur" || merged.DurationDays != 3 {
		t.Errorf("silent fields must survive the merge: %+v", merged)
	}
	if merged.Pace != trip.PaceRelaxed {
		t.Errorf("expected relaxed pace, got %s", merged.Pace)
	}

	merged = MergeIntoPreferences(merged, Entities{City: "Mumbai"})
	if merged.City != "Mumbai" {
		t.Errorf("a restated field must override, got %s", merged.City)
	}
}

func TestResolveEditIntent(t *testing.T) {
	it, err := ResolveEditIntent(Entities{EditOp: "change_pace", Day: 2, Pace: "relaxed"}, 3)
	if err != nil {
		t.Fatalf("ResolveEditIntent failed: %v", err)
	}
	if it.Op != trip.EditChangePace || it.Day != 2 || it.Pace != trip.PaceRelaxed {
		t.Errorf("unexpected intent %+v", it)
	}

	if _, err := ResolveEditIntent(Entities{EditOp: "SWAP_ACTIVITY", Block: "morning"}, 3); err == nil {
		t.Error("missing day on a multi-day plan must not resolve")
	}

	it, err = ResolveEditIntent(Entities{EditOp: "SWAP_ACTIVITY", Block: "Morning"}, 1)
	if err != nil {
		t.Fatalf("single-day plans default the day: %v", err)
	}
	if it.Day != 1 || it.Block != trip.BlockMorning {
		t.Errorf("unexpected intent %+v", it)
	}
}
