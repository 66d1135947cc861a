package intent

import (
	"fmt"
	"strings"

	"ai-trip-planner/internal/trip"
)

// Entities is the flat slot set the classifier may fill. Planning slots and
// edit slots share the struct; which ones matter depends on the intent.
type Entities struct {
	City         string   `json:"city,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	Pace         string   `json:"pace,omitempty"`
	Budget       string   `json:"budget,omitempty"`

	EditOp   string `json:"edit_op,omitempty"`
	Day      int    `json:"day,omitempty"`
	OtherDay int    `json:"other_day,omitempty"`
	Block    string `json:"block,omitempty"`
	ToBlock  string `json:"to_block,omitempty"`
	Activity string `json:"activity,omitempty"`
	Category string `json:"category,omitempty"`

	// Referent identifies what an EXPLAIN utterance is about: a POI name,
	// "day N", "plan", or a hypothetical.
	Referent string `json:"referent,omitempty"`
}

// MergeIntoPreferences folds newly extracted slots into the accumulated
// preferences. Existing values win only when the new turn is silent about
// them: the user restating a field overrides what we had.
func MergeIntoPreferences(prefs trip.Preferences, e Entities) trip.Preferences {
	if e.City != "" {
		prefs.City = e.City
	}
	if e.DurationDays > 0 {
		prefs.DurationDays = e.DurationDays
	}
	if len(e.Interests) > 0 {
		prefs.Interests = e.Interests
	}
	if p := trip.Pace(strings.ToLower(e.Pace)); p.Valid() {
		prefs.Pace = p
	}
	if e.Budget != "" {
		prefs.Budget = e.Budget
	}
	return prefs
}

// ResolveEditIntent turns classifier slots into a concrete, validated
// EditIntent. Missing or contradictory slots are an error so the caller asks
// a clarifying question instead of guessing a mutation.
func ResolveEditIntent(e Entities, dayCount int) (trip.EditIntent, error) {
	op := trip.EditOp(strings.ToUpper(strings.TrimSpace(e.EditOp)))

	it := trip.EditIntent{
		Op:       op,
		Day:      e.Day,
		OtherDay: e.OtherDay,
		Block:    trip.BlockName(strings.ToLower(e.Block)),
		ToBlock:  trip.BlockName(strings.ToLower(e.ToBlock)),
		Activity: e.Activity,
		Pace:     trip.Pace(strings.ToLower(e.Pace)),
		Category: e.Category,
	}

	// Day-scoped edits with no day mentioned default to day 1 only when the
	// plan has one day; otherwise the ambiguity goes back to the user.
	if it.Day == 0 && !it.Global() && op != trip.EditAddDay {
		if dayCount == 1 {
			it.Day = 1
		} else {
			return trip.EditIntent{}, fmt.Errorf("edit %s needs a day reference", op)
		}
	}

	if err := it.Validate(dayCount); err != nil {
		return trip.EditIntent{}, err
	}
	return it, nil
}
