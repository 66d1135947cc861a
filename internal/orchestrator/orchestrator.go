// Package orchestrator sequences the conversational flows: collecting
// preferences, building and editing itineraries, and answering questions
// about them. It owns the session state machine; every turn runs through
// HandleTurn.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"ai-trip-planner/internal/edit"
	"ai-trip-planner/internal/eval"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/knowledge"
	"ai-trip-planner/internal/scheduler"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

// Turn outcome statuses.
const (
	StatusQuestion   = "question"
	StatusPlanned    = "planned"
	StatusEdited     = "edited"
	StatusExplained  = "explained"
	StatusError      = "error"
	StatusSuperseded = "superseded"
)

// Below this classifier confidence an edit is never guessed; the user gets a
// clarifying question instead.
const minEditConfidence = 0.5

// One auto-correction pass when feasibility or edit-correctness fails.
const autoCorrectPasses = 1

// Classifier is the intent-extraction collaborator.
type Classifier interface {
	Classify(ctx context.Context, utterance string, sc intent.SessionContext) (intent.Classification, shared.AgentMeta, error)
}

// Explainer is the grounded-explanation collaborator.
type Explainer interface {
	Explain(ctx context.Context, question, referent string, it *trip.Itinerary) (knowledge.Explanation, shared.AgentMeta, error)
}

// Defaults fill mandatory preference fields once the clarifying-question
// budget is exhausted.
type Defaults struct {
	City         string
	DurationDays int
	Pace         trip.Pace
	Interests    []string
}

// Response is the result of one turn.
type Response struct {
	SessionID    string                 `json:"session_id"`
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Question     string                 `json:"question,omitempty"`
	Itinerary    *trip.Itinerary        `json:"itinerary,omitempty"`
	Explanation  *knowledge.Explanation `json:"explanation,omitempty"`
	Evaluation   *eval.Evaluation       `json:"evaluation,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Suggestions  []string               `json:"suggestions,omitempty"`
	UsedDefaults []string               `json:"used_defaults,omitempty"`
	Metas        []shared.AgentMeta     `json:"-"`

	// sessionMutation is the flow's state change, applied at commit time under
	// the latest-wins sequence check.
	sessionMutation func(*session.Session) error
}

// Orchestrator wires the collaborators together for the three flows.
type Orchestrator struct {
	store      *session.Store
	classifier Classifier
	builder    *scheduler.Builder
	editor     *edit.Engine
	explainer  Explainer
	defaults   Defaults
	history    *session.HistoryRepository
}

// New creates an Orchestrator.
func New(store *session.Store, classifier Classifier, builder *scheduler.Builder, editor *edit.Engine, explainer Explainer, defaults Defaults) *Orchestrator {
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		builder:    builder,
		editor:     editor,
		explainer:  explainer,
		defaults:   defaults,
	}
}

// WithHistory enables durable turn and itinerary persistence. Persistence is
// best effort: a failed write logs a warning and never fails the turn.
func (o *Orchestrator) WithHistory(h *session.HistoryRepository) *Orchestrator {
	o.history = h
	return o
}

// NewSession creates a fresh session and returns its id.
func (o *Orchestrator) NewSession() string {
	return o.store.Create()
}

// HandleTurn runs one utterance through classification and the flow its
// intent selects. Turns for the same session are serialized by the store;
// when a newer turn starts while this one is in flight, this one's commit is
// discarded (latest wins) and the response says so.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, utterance string) (Response, error) {
	var mySeq int
	if err := o.store.Apply(sessionID, func(s *session.Session) error {
		s.TurnSeq++
		mySeq = s.TurnSeq
		s.AddMessage("user", utterance)
		return nil
	}); err != nil {
		return Response{}, err
	}

	snap, err := o.store.Get(sessionID)
	if err != nil {
		return Response{}, err
	}

	classification, meta, err := o.classifier.Classify(ctx, utterance, intent.SessionContext{
		State:        string(snap.State),
		Preferences:  snap.Preferences,
		HasPlan:      snap.Itinerary != nil,
		DayCount:     dayCount(snap.Itinerary),
		LastQuestion: lastAssistantMessage(snap),
	})
	if err != nil {
		return Response{}, err
	}

	resp := o.route(ctx, snap, classification, utterance)
	resp.SessionID = sessionID
	resp.Metas = append([]shared.AgentMeta{meta}, resp.Metas...)

	if err := o.commit(sessionID, mySeq, resp); err != nil {
		if trip.KindOf(err) == trip.KindSessionNotFound {
			return Response{}, err
		}
		log.Printf("Warning: turn %d for session %s superseded, result discarded", mySeq, sessionID)
		return Response{SessionID: sessionID, Status: StatusSuperseded}, nil
	}

	o.persistTurn(ctx, sessionID, utterance, resp)
	return resp, nil
}

// persistTurn records the exchange and any new itinerary durably.
func (o *Orchestrator) persistTurn(ctx context.Context, sessionID, utterance string, resp Response) {
	if o.history == nil {
		return
	}
	if err := o.history.RecordTurn(ctx, sessionID, session.Message{Role: "user", Text: utterance}); err != nil {
		log.Printf("Warning: failed to persist user turn for session %s: %v", sessionID, err)
	}
	reply := resp.Message
	if resp.Question != "" {
		reply = resp.Question
	}
	if err := o.history.RecordTurn(ctx, sessionID, session.Message{Role: "assistant", Text: reply}); err != nil {
		log.Printf("Warning: failed to persist assistant turn for session %s: %v", sessionID, err)
	}
	if resp.Itinerary != nil {
		if err := o.history.SaveItinerary(ctx, sessionID, resp.Itinerary); err != nil {
			log.Printf("Warning: failed to persist itinerary for session %s: %v", sessionID, err)
		}
	}
}

// route dispatches on the state machine plus the classified intent. PLANNED
// is the only state that accepts edits and explanations.
func (o *Orchestrator) route(ctx context.Context, snap *session.Session, c intent.Classification, utterance string) Response {
	if c.Confidence == 0 || c.Intent == intent.IntentOther {
		return Response{
			Status:   StatusQuestion,
			Question: "I didn't quite get that. Could you rephrase it?",
		}
	}

	switch c.Intent {
	case intent.IntentPlanTrip, intent.IntentClarifyAnswer:
		return o.planTurn(ctx, snap, c)
	case intent.IntentEditItinerary:
		if snap.State != session.StatePlanned || snap.Itinerary == nil {
			return Response{
				Status:   StatusQuestion,
				Question: "There is no itinerary to change yet. Where would you like to go?",
			}
		}
		return o.editTurn(ctx, snap, c)
	case intent.IntentExplain:
		if snap.State != session.StatePlanned || snap.Itinerary == nil {
			return Response{
				Status:   StatusQuestion,
				Question: "Let's build an itinerary first, then I can explain it. Where would you like to go?",
			}
		}
		return o.explainTurn(ctx, snap, c, utterance)
	default:
		return Response{
			Status:   StatusQuestion,
			Question: "I didn't quite get that. Could you rephrase it?",
		}
	}
}

// commit writes the turn's outcome back to the session. A turn whose sequence
// is no longer the latest is rejected so a slower turn can never overwrite a
// newer one.
func (o *Orchestrator) commit(sessionID string, mySeq int, resp Response) error {
	return o.store.Apply(sessionID, func(s *session.Session) error {
		if s.TurnSeq != mySeq {
			return fmt.Errorf("turn %d superseded by turn %d", mySeq, s.TurnSeq)
		}
		if mutate := resp.sessionMutation; mutate != nil {
			if err := mutate(s); err != nil {
				return err
			}
		}
		switch {
		case resp.Question != "":
			s.AddMessage("assistant", resp.Question)
		case resp.Message != "":
			s.AddMessage("assistant", resp.Message)
		}
		return nil
	})
}

// setState marks the stored session's state while a flow is in flight, so a
// concurrent turn's classifier sees EDITING or EXPLAINING instead of PLANNED.
// Best effort; the flow's own commit settles the final state.
func (o *Orchestrator) setState(sessionID string, state session.State) {
	if err := o.store.Apply(sessionID, func(s *session.Session) error {
		s.State = state
		return nil
	}); err != nil {
		log.Printf("Warning: failed to mark session %s as %s: %v", sessionID, state, err)
	}
}

func dayCount(it *trip.Itinerary) int {
	if it == nil {
		return 0
	}
	return len(it.Days)
}

func lastAssistantMessage(s *session.Session) string {
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].Role == "assistant" {
			return s.History[i].Text
		}
	}
	return ""
}
