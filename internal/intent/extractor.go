package intent

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"text/template"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

//go:embed classifier_prompt.md
var classifierPrompt string

// Intent is the classified purpose of one utterance.
type Intent string

const (
	IntentPlanTrip      Intent = "PLAN_TRIP"
	IntentEditItinerary Intent = "EDIT_ITINERARY"
	IntentExplain       Intent = "EXPLAIN"
	IntentClarifyAnswer Intent = "CLARIFY_ANSWER"
	IntentOther         Intent = "OTHER"
)

var knownIntents = map[Intent]bool{
	IntentPlanTrip:      true,
	IntentEditItinerary: true,
	IntentExplain:       true,
	IntentClarifyAnswer: true,
	IntentOther:         true,
}

const classifyTimeout = 15 * time.Second

// Classification is the validated classifier output for one utterance.
type Classification struct {
	Intent     Intent   `json:"intent"`
	Entities   Entities `json:"entities"`
	Confidence float64  `json:"confidence"`
}

// SessionContext is what the classifier knows about the conversation so far.
type SessionContext struct {
	State        string
	Preferences  trip.Preferences
	HasPlan      bool
	DayCount     int
	LastQuestion string
}

type classifierPromptData struct {
	Utterance    string
	State        string
	City         string
	DurationDays int
	Interests    []string
	Pace         string
	HasPlan      bool
	DayCount     int
	LastQuestion string
}

// Extractor classifies utterances into intents and entity slots via the
// language-model collaborator.
type Extractor struct {
	textGen llm.TextGenerator
}

// NewExtractor creates an Extractor on top of a text generator.
func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen}
}

// Classify maps one utterance plus session context to a structured intent.
// The utterance is homophone-normalized first. A collaborator timeout is
// retried once; a second timeout or an unusable response degrades to OTHER
// with confidence 0, never to an error the caller must branch on.
func (e *Extractor) Classify(ctx context.Context, utterance string, sc SessionContext) (Classification, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "Classifier"}

	prompt, err := buildClassifierPrompt(classifierPromptData{
		Utterance:    NormalizeUtterance(utterance),
		State:        sc.State,
		City:         sc.Preferences.City,
		DurationDays: sc.Preferences.DurationDays,
		Interests:    sc.Preferences.Interests,
		Pace:         string(sc.Preferences.Pace),
		HasPlan:      sc.HasPlan,
		DayCount:     sc.DayCount,
		LastQuestion: sc.LastQuestion,
	})
	if err != nil {
		return Classification{}, meta, err
	}

	resp, err := e.generateWithRetry(ctx, prompt)
	if err != nil {
		log.Printf("Warning: classifier unavailable, degrading to OTHER: %v", err)
		meta.Latency = time.Since(start)
		return Classification{Intent: IntentOther, Confidence: 0}, meta, nil
	}
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)

	return validate(resp.Content), meta, nil
}

// generateWithRetry calls the collaborator under a deadline, retrying once on
// timeout.
func (e *Extractor) generateWithRetry(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, classifyTimeout)
		resp, err := e.textGen.GenerateContent(callCtx, prompt)
		cancel()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !errors.Is(err, context.DeadlineExceeded) {
			return llm.ContentResponse{}, fmt.Errorf("classifier call failed: %w", err)
		}
	}
	return llm.ContentResponse{}, trip.NewCollaboratorTimeout("classifier", lastErr)
}

// validate enforces the closed classifier schema. Anything off-schema is
// treated as OTHER with confidence 0 rather than trusting partial structure.
func validate(content string) Classification {
	var c Classification
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		log.Printf("Warning: classifier returned non-JSON output: %v", err)
		return Classification{Intent: IntentOther, Confidence: 0}
	}

	if !knownIntents[c.Intent] {
		log.Printf("Warning: classifier returned unknown intent %q", c.Intent)
		return Classification{Intent: IntentOther, Confidence: 0}
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return Classification{Intent: IntentOther, Confidence: 0}
	}
	if c.Entities.DurationDays < 0 || c.Entities.Day < 0 || c.Entities.OtherDay < 0 {
		return Classification{Intent: IntentOther, Confidence: 0}
	}
	return c
}

func buildClassifierPrompt(data classifierPromptData) (string, error) {
	tmpl, err := template.New("classifier").Parse(classifierPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
