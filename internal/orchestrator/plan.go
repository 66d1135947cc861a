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

// Clarifying questions for the mandatory fields, asked in this order.
var clarifyingQuestions = map[string]string{
	trip.FieldCity:      "Which city are you planning to visit?",
	trip.FieldDuration:  "How many days will you be there?",
	trip.FieldInterests: "What do you enjoy most when travelling? Food, history, shopping, nature?",
	trip.FieldPace:      "Do you prefer a relaxed, moderate, or fast pace?",
}

// planTurn runs the planning flow: merge extracted slots into the
// preferences, ask one clarifying question per turn while mandatory fields
// are missing, and build the itinerary once they are complete. After six
// questions the remaining fields fall back to configured defaults and the
// response says which.
func (o *Orchestrator) planTurn(ctx context.Context, snap *session.Session, c intent.Classification) Response {
	prefs := intent.MergeIntoPreferences(snap.Preferences, c.Entities)

	if missing := prefs.MissingFields(); len(missing) > 0 {
		if snap.ClarifyingQuestionsAsked < session.MaxClarifyingQuestions {
			question := clarifyingQuestions[missing[0]]
			return Response{
				Status:   StatusQuestion,
				Question: question,
				sessionMutation: func(s *session.Session) error {
					s.Preferences = prefs
					s.ClarifyingQuestionsAsked++
					s.State = session.StateClarifying
					return nil
				},
			}
		}

		var usedDefaults []string
		prefs, usedDefaults = o.fillDefaults(prefs)
		return o.buildAndEvaluate(ctx, snap, prefs, usedDefaults)
	}

	return o.buildAndEvaluate(ctx, snap, prefs, nil)
}

// fillDefaults substitutes configured defaults for any still-missing field
// and reports which fields were defaulted.
func (o *Orchestrator) fillDefaults(prefs trip.Preferences) (trip.Preferences, []string) {
	var used []string
	if prefs.City == "" {
		prefs.City = o.defaults.City
		used = append(used, trip.FieldCity)
	}
	if prefs.DurationDays <= 0 {
		prefs.DurationDays = o.defaults.DurationDays
		used = append(used, trip.FieldDuration)
	}
	if len(prefs.Interests) == 0 {
		prefs.Interests = o.defaults.Interests
		used = append(used, trip.FieldInterests)
	}
	if !prefs.Pace.Valid() {
		prefs.Pace = o.defaults.Pace
		used = append(used, trip.FieldPace)
	}
	return prefs, used
}

// buildAndEvaluate invokes the scheduler, gates the result through the
// feasibility and grounding evaluators, and auto-corrects once on hard
// violations before surfacing them as warnings.
func (o *Orchestrator) buildAndEvaluate(ctx context.Context, snap *session.Session, prefs trip.Preferences, usedDefaults []string) Response {
	it, warnings, err := o.builder.BuildItinerary(ctx, prefs, snap.UsedPOIs)
	if err != nil {
		return o.planFailure(prefs, err)
	}

	feas, evalErr := eval.Run("feasibility", func() eval.Result { return eval.Feasibility(it) })
	if evalErr != nil {
		return Response{Status: StatusError, Message: evalErr.Error()}
	}

	for pass := 0; pass < autoCorrectPasses && !feas.Passed(); pass++ {
		log.Printf("Warning: itinerary for %s failed feasibility (%v), re-planning with fresh candidates", prefs.City, feas.Violations)
		// Exclude the violating plan's POIs so the re-plan selects differently.
		exclude := usedUnion(snap.UsedPOIs, it)
		retry, retryWarnings, retryErr := o.builder.BuildItinerary(ctx, prefs, exclude)
		if retryErr != nil {
			break
		}
		retryFeas, retryEvalErr := eval.Run("feasibility", func() eval.Result { return eval.Feasibility(retry) })
		if retryEvalErr != nil {
			break
		}
		if len(retryFeas.Violations) < len(feas.Violations) {
			it, warnings, feas = retry, retryWarnings, retryFeas
		}
	}

	grounding, evalErr := eval.Run("grounding", func() eval.Result { return eval.Grounding(it) })
	if evalErr != nil {
		return Response{Status: StatusError, Message: evalErr.Error()}
	}

	warnings = append(warnings, feas.Warnings...)
	if !feas.Passed() {
		warnings = append(warnings, feas.Violations...)
	}

	msg := FormatItinerary(it)
	for _, field := range usedDefaults {
		warnings = append(warnings, fmt.Sprintf("no %s given, assumed %s", field, defaultValueText(o.defaults, field)))
	}

	return Response{
		Status:       StatusPlanned,
		Message:      msg,
		Itinerary:    it,
		Evaluation:   &eval.Evaluation{Feasibility: &feas, Grounding: &grounding},
		Warnings:     warnings,
		UsedDefaults: usedDefaults,
		sessionMutation: func(s *session.Session) error {
			s.Preferences = prefs
			s.Itinerary = it
			s.State = session.StatePlanned
			s.ClarifyingQuestionsAsked = 0
			for _, day := range it.Days {
				for _, a := range day.Activities() {
					s.MarkUsed([]trip.POI{a.POI})
				}
			}
			return nil
		},
	}
}

// planFailure maps scheduler errors to conversational responses. An unknown
// city keeps the session in the clarifying loop with alternatives to offer.
func (o *Orchestrator) planFailure(prefs trip.Preferences, err error) Response {
	var te *trip.Error
	if errors.As(err, &te) && te.Kind == trip.KindCityNotFound {
		return Response{
			Status:      StatusError,
			Message:     fmt.Sprintf("I couldn't find place data for %s. How about %s?", prefs.City, joinAlternatives(te.Suggestions)),
			Suggestions: te.Suggestions,
			sessionMutation: func(s *session.Session) error {
				prefs.City = ""
				s.Preferences = prefs
				s.State = session.StateClarifying
				return nil
			},
		}
	}
	return Response{Status: StatusError, Message: err.Error()}
}

// usedUnion merges the session's used set with the POIs of an itinerary.
func usedUnion(used map[string]bool, it *trip.Itinerary) map[string]bool {
	out := make(map[string]bool, len(used))
	for k, v := range used {
		out[k] = v
	}
	for _, day := range it.Days {
		for _, a := range day.Activities() {
			out[a.POI.Name] = true
		}
	}
	return out
}

func defaultValueText(d Defaults, field string) string {
	switch field {
	case trip.FieldCity:
		return d.City
	case trip.FieldDuration:
		return fmt.Sprintf("%d days", d.DurationDays)
	case trip.FieldInterests:
		return fmt.Sprintf("%v", d.Interests)
	default:
		return string(d.Pace)
	}
}

func joinAlternatives(alts []string) string {
	switch len(alts) {
	case 0:
		return "another city"
	case 1:
		return alts[0]
	default:
		out := ""
		for i, a := range alts {
			switch {
			case i == 0:
				out = a
			case i == len(alts)-1:
				out += " or " + a
			default:
				out += ", " + a
			}
		}
		return out
	}
}
