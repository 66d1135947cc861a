package telegram

import (
	"strings"
	"testing"

	"ai-trip-planner/internal/eval"
	"ai-trip-planner/internal/orchestrator"
)

func TestFormatResponse(t *testing.T) {
	resp := orchestrator.Response{
		Status:   orchestrator.StatusPlanned,
		Message:  "Here is your 2-day moderate itinerary for Jaipur:",
		Warnings: []string{"limited data available for city Jaipur"},
		Evaluation: &eval.Evaluation{
			Grounding: &eval.Result{UncertainData: []string{"visit duration for \"Amber Fort\" is a category estimate"}},
		},
	}

	out := formatResponse(resp)
	if !strings.Contains(out, "Here is your 2-day moderate itinerary") {
		t.Error("missing itinerary text")
	}
	if !strings.Contains(out, "⚠️ limited data available") {
		t.Error("missing warning")
	}
	if !strings.Contains(out, "ℹ️ visit duration") {
		t.Error("missing uncertain-data note")
	}
}

func TestFormatResponseQuestion(t *testing.T) {
	out := formatResponse(orchestrator.Response{
		Status:   orchestrator.StatusQuestion,
		Question: "Which city are you planning to visit?",
	})
	if !strings.Contains(out, "❓ Which city") {
		t.Errorf("unexpected question formatting: %q", out)
	}
}

func TestFormatResponseSuperseded(t *testing.T) {
	out := formatResponse(orchestrator.Response{Status: orchestrator.StatusSuperseded})
	if !strings.Contains(out, "newer message") {
		t.Errorf("unexpected superseded formatting: %q", out)
	}
}
