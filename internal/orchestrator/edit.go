package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ai-trip-planner/internal/eval"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/session"
	"ai-trip-planner/internal/trip"
)

// editTurn runs the edit flow: resolve the classified slots into a concrete
// EditIntent, apply it through the edit engine, and gate the result through
// the edit-correctness and feasibility evaluators. A correctness violation
// discards the mutation and retries once; a second failure restores the
// prior itinerary and apologizes instead of shipping a broken edit. Low
// classifier confidence never guesses a mutation.
func (o *Orchestrator) editTurn(ctx context.Context, snap *session.Session, c intent.Classification) Response {
	if c.Confidence < minEditConfidence {
		return Response{
			Status:   StatusQuestion,
			Question: "I want to be sure before changing your plan. Which day or activity should I change, and how?",
		}
	}

	editIntent, err := intent.ResolveEditIntent(c.Entities, len(snap.Itinerary.Days))
	if err != nil {
		return Response{
			Status:   StatusQuestion,
			Question: fmt.Sprintf("I need a bit more detail: %s.", err),
		}
	}

	o.setState(snap.ID, session.StateEditing)
	defer o.setState(snap.ID, session.StatePlanned)

	before := snap.Itinerary
	result, warnings, evaluation, err := o.applyChecked(ctx, snap, before, editIntent)
	if err != nil {
		log.Printf("Warning: edit %s failed (%v), retrying once", editIntent.Op, err)
		result, warnings, evaluation, err = o.applyChecked(ctx, snap, before, editIntent)
	}
	if err != nil {
		return o.editFailure(editIntent, err)
	}

	return Response{
		Status:     StatusEdited,
		Message:    FormatItinerary(result),
		Itinerary:  result,
		Evaluation: evaluation,
		Warnings:   warnings,
		sessionMutation: func(s *session.Session) error {
			s.Itinerary = result
			s.EditHistory = append(s.EditHistory, editIntent)
			s.State = session.StatePlanned
			for _, day := range result.Days {
				for _, a := range day.Activities() {
					s.MarkUsed([]trip.POI{a.POI})
				}
			}
			return nil
		},
	}
}

// applyChecked performs one mutation attempt and evaluates it. The input
// itinerary is never touched, so a failed attempt needs no rollback.
func (o *Orchestrator) applyChecked(ctx context.Context, snap *session.Session, before *trip.Itinerary, editIntent trip.EditIntent) (*trip.Itinerary, []string, *eval.Evaluation, error) {
	result, warnings, err := o.editor.Apply(ctx, before, editIntent, snap.Preferences, snap.UsedPOIs)
	if err != nil {
		return nil, warnings, nil, err
	}

	correctness, evalErr := eval.Run("edit_correctness", func() eval.Result {
		return eval.EditCorrectness(before, result, editIntent)
	})
	if evalErr != nil {
		return nil, warnings, nil, evalErr
	}
	if !correctness.Passed() {
		return nil, warnings, nil, trip.NewEditValidation(
			fmt.Sprintf("edit %s leaked outside its scope: %v", editIntent.Op, correctness.Violations))
	}

	feas, evalErr := eval.Run("feasibility", func() eval.Result { return eval.Feasibility(result) })
	if evalErr != nil {
		return nil, warnings, nil, evalErr
	}
	if !feas.Passed() {
		return nil, warnings, nil, trip.NewEditValidation(
			fmt.Sprintf("edit %s made the plan infeasible: %v", editIntent.Op, feas.Violations))
	}

	warnings = append(warnings, correctness.Warnings...)
	warnings = append(warnings, feas.Warnings...)
	return result, warnings, &eval.Evaluation{EditCorrectness: &correctness, Feasibility: &feas}, nil
}

// editFailure keeps the prior itinerary and explains what went wrong. The
// session is left in PLANNED with the original plan untouched.
func (o *Orchestrator) editFailure(editIntent trip.EditIntent, err error) Response {
	var te *trip.Error
	if errors.As(err, &te) && te.Recoverable() {
		return Response{
			Status:  StatusError,
			Message: fmt.Sprintf("Sorry, I couldn't apply that change: %s. Your itinerary is unchanged.", te.Message),
		}
	}
	return Response{
		Status:  StatusError,
		Message: fmt.Sprintf("Sorry, something went wrong applying %s. Your itinerary is unchanged.", editIntent.Op),
	}
}
