package eval

import (
	"fmt"

	"ai-trip-planner/internal/edit"
	"ai-trip-planner/internal/trip"
)

// EditCorrectness verifies that an applied edit changed exactly what its
// intent declared. Changes outside the declared locators are violations;
// declared locators the edit left untouched are warnings, since a no-op
// (re-applying the current pace) is legitimate.
func EditCorrectness(before, after *trip.Itinerary, intent trip.EditIntent) Result {
	res := Result{Name: "edit_correctness"}
	var sc scorecard

	changed := edit.ChangedLocators(before, after)
	declared := intent.Locators(len(before.Days))

	extras := edit.OutOfScope(changed, declared)
	sc.check(len(extras) == 0, 3)
	for _, loc := range extras {
		res.Violations = append(res.Violations,
			fmt.Sprintf("edit %s changed %s outside its declared scope", intent.Op, loc))
	}

	// Global edits (REDUCE_TRAVEL) declare every day, so only locator-scoped
	// intents are held to "every declared slice actually changed".
	if !intent.Global() {
		for _, loc := range edit.Untouched(changed, declared) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("edit %s declared %s but left it unchanged", intent.Op, loc))
		}
	}

	sc.check(len(changed) > 0 || len(declared) == 0, 1)
	if len(changed) == 0 && len(declared) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("edit %s produced no change", intent.Op))
	}

	res.Score = sc.score()
	return res
}
