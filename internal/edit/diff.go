package edit

import (
	"bytes"
	"encoding/json"

	"ai-trip-planner/internal/trip"
)

// ChangedLocators structurally diffs two itineraries at day/block
// granularity and returns the locators where they differ. Added or removed
// days are reported as whole-day locators.
func ChangedLocators(before, after *trip.Itinerary) []trip.Locator {
	var changed []trip.Locator

	common := len(before.Days)
	if len(after.Days) < common {
		common = len(after.Days)
	}

	for d := 0; d < common; d++ {
		for _, name := range trip.BlockNames {
			b := before.Days[d].Block(name)
			a := after.Days[d].Block(name)
			if !blocksEqual(b, a) {
				changed = append(changed, trip.Locator{Day: d + 1, Block: name})
			}
		}
	}

	longest := len(before.Days)
	if len(after.Days) > longest {
		longest = len(after.Days)
	}
	for d := common; d < longest; d++ {
		changed = append(changed, trip.Locator{Day: d + 1})
	}

	return changed
}

// blocksEqual compares blocks by canonical JSON. "Byte-identical" in the
// edit contract means identical canonical encoding. A nil activity list and
// an empty one are the same empty block, whichever representation a JSON
// round trip left behind.
func blocksEqual(a, b *trip.TimeBlock) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Activities) == 0 && len(b.Activities) == 0 {
		return a.Name == b.Name
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}

// Covered reports whether every changed locator falls inside the declared
// scope. A declared whole-day locator covers all blocks of that day.
func Covered(changed, declared []trip.Locator) bool {
	for _, c := range changed {
		if !coveredBy(c, declared) {
			return false
		}
	}
	return true
}

func coveredBy(c trip.Locator, declared []trip.Locator) bool {
	for _, d := range declared {
		if d.Day != c.Day {
			continue
		}
		if d.Block == "" || d.Block == c.Block {
			return true
		}
	}
	return false
}

// OutOfScope returns the changed locators not covered by the declared set.
func OutOfScope(changed, declared []trip.Locator) []trip.Locator {
	var out []trip.Locator
	for _, c := range changed {
		if !coveredBy(c, declared) {
			out = append(out, c)
		}
	}
	return out
}

// Untouched returns the declared locators with no corresponding change.
// A no-op edit (e.g. re-applying the same pace) is reported here, not as a
// scope breach.
func Untouched(changed, declared []trip.Locator) []trip.Locator {
	var out []trip.Locator
	for _, d := range declared {
		hit := false
		for _, c := range changed {
			if c.Day == d.Day && (d.Block == "" || d.Block == c.Block) {
				hit = true
				break
			}
		}
		if !hit {
			out = append(out, d)
		}
	}
	return out
}
