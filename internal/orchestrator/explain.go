package orchestrator

import (
	"context"

	"ai-trip-planner/internal/eval"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/shared"
)

// explainTurn runs the explain flow: retrieve supporting context for the
// referent, compose a cited answer, and gate it through the grounding
// evaluator. Preferences and itinerary are never mutated here.
func (o *Orchestrator) explainTurn(ctx context.Context, snap *session.Session, c intent.Classification, utterance string) Response {
	referent := c.Entities.Referent
	if referent == "" {
		referent = "the plan"
	}

	o.setState(snap.ID, session.StateExplaining)
	defer o.setState(snap.ID, session.StatePlanned)

	explanation, meta, err := o.explainer.Explain(ctx, utterance, referent, snap.Itinerary)
	if err != nil {
		return Response{
			Status:  StatusError,
			Message: "Sorry, I couldn't look that up right now. Your itinerary is unchanged.",
		}
	}

	grounding, evalErr := eval.Run("grounding", func() eval.Result {
		return eval.ExplanationGrounding(explanation.Text, explanation.Cited, explanation.NoSource)
	})
	if evalErr != nil {
		return Response{Status: StatusError, Message: evalErr.Error()}
	}

	return Response{
		Status:      StatusExplained,
		Message:     explanation.Text,
		Explanation: &explanation,
		Evaluation:  &eval.Evaluation{Grounding: &grounding},
		Warnings:    grounding.Warnings,
		Metas:       []shared.AgentMeta{meta},
	}
}
