package eval

import (
	"fmt"

	"ai-trip-planner/internal/trip"
)

// Grounding verifies every scheduled activity traces back to a source: a
// missing SourceID is a violation, estimated durations and thin metadata are
// collected as uncertain data the user should be told about.
func Grounding(it *trip.Itinerary) Result {
	res := Result{Name: "grounding"}
	var sc scorecard

	for _, day := range it.Days {
		for _, a := range day.Activities() {
			cited := a.SourceID() != ""
			sc.check(cited, 2)
			if !cited {
				res.Violations = append(res.Violations,
					fmt.Sprintf("day %d: %q has no source reference", day.Day, a.POI.Name))
			}

			if a.DurationEstimated {
				res.UncertainData = append(res.UncertainData,
					fmt.Sprintf("visit duration for %q is a category estimate", a.POI.Name))
			}
			if !a.POI.MetadataComplete() {
				res.UncertainData = append(res.UncertainData,
					fmt.Sprintf("incomplete metadata for %q", a.POI.Name))
			}
			if a.TravelEstimated {
				res.UncertainData = append(res.UncertainData,
					fmt.Sprintf("travel time to %q estimated from straight-line distance", a.POI.Name))
			}
		}
	}

	res.Score = sc.score()
	return res
}

// ExplanationGrounding verifies a generated explanation carries at least one
// citation, or explicitly states that no source exists. Claims without either
// are a violation: the explainer must not invent authority.
func ExplanationGrounding(explanation string, citations []string, saysNoSource bool) Result {
	res := Result{Name: "grounding"}
	var sc scorecard

	backed := len(citations) > 0 || saysNoSource
	sc.check(backed, 2)
	if !backed {
		res.Violations = append(res.Violations, "explanation cites no source and does not say so")
	}
	if saysNoSource && len(citations) == 0 {
		res.UncertainData = append(res.UncertainData, "explanation is not backed by a retrieved source")
	}

	sc.check(explanation != "", 1)
	if explanation == "" {
		res.Violations = append(res.Violations, "empty explanation")
	}

	res.Score = sc.score()
	return res
}
