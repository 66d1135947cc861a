package intent

import (
	"context"
	"testing"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/trip"
)

// TestClassifier_LiveEval performs a real LLM call to evaluate the classifier's
// intent routing and entity extraction on noisy voice transcripts.
// Run with: go test -v ./internal/intent -run TestClassifier_LiveEval
func TestClassifier_LiveEval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live eval in short mode")
	}

	ctx := context.Background()
	cfg, err := config.NewFromEnv()
	if err != nil {
		t.Skip("Skipping: No API keys found in environment")
	}

	extractor := NewExtractor(llm.NewGroqClient(cfg))

	planned := SessionContext{
		State:       "PLANNED",
		Preferences: trip.Preferences{City: "Jaipur", DurationDays: 3, Interests: []string{"history"}, Pace: trip.PaceModerate},
		HasPlan:     true,
		DayCount:    3,
	}

	// EVAL A: a noisy voice transcript must still resolve to an edit with the
	// right day and pace.
	c, _, err := extractor.Classify(ctx, "make day to more relaxed", planned)
	if err != nil {
		t.Fatalf("Classifier failed to respond: %v", err)
	}
	if c.Intent != IntentEditItinerary {
		t.Errorf("QUALITY FAIL: expected EDIT_ITINERARY, got %s (confidence %.2f)", c.Intent, c.Confidence)
	}
	if c.Entities.Day != 2 {
		t.Errorf("QUALITY FAIL: homophone day not repaired, got day %d", c.Entities.Day)
	}
	if c.Entities.Pace != "relaxed" {
		t.Errorf("QUALITY FAIL: pace entity = %q", c.Entities.Pace)
	}

	// EVAL B: a travel complaint is the global reduce-travel edit, not a replan.
	c, _, err = extractor.Classify(ctx, "that's way too much walking between places", planned)
	if err != nil {
		t.Fatalf("Classifier failed to respond: %v", err)
	}
	if c.Intent != IntentEditItinerary || c.Entities.EditOp != "REDUCE_TRAVEL" {
		t.Errorf("QUALITY FAIL: expected REDUCE_TRAVEL edit, got %s/%s", c.Intent, c.Entities.EditOp)
	}

	// EVAL C: an answer to a pending clarifying question must not open a new plan.
	clarifying := SessionContext{
		State:        "CLARIFYING",
		Preferences:  trip.Preferences{City: "Mumbai"},
		LastQuestion: "How many days will you be there?",
	}
	c, _, err = extractor.Classify(ctx, "four days", clarifying)
	if err != nil {
		t.Fatalf("Classifier failed to respond: %v", err)
	}
	if c.Intent != IntentClarifyAnswer {
		t.Errorf("QUALITY FAIL: expected CLARIFY_ANSWER, got %s", c.Intent)
	}
	if c.Entities.DurationDays != 4 {
		t.Errorf("QUALITY FAIL: duration entity = %d", c.Entities.DurationDays)
	}

	t.Logf("Eval complete. Final classification: %s (confidence %.2f)", c.Intent, c.Confidence)
}
