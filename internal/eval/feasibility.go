package eval

import (
	"fmt"

	"ai-trip-planner/internal/trip"
)

// Default travel-leg ceilings per mode. Legs beyond these are hard violations
// unless the caller overrides the limits.
const (
	maxWalkingLeg = 30
	maxTransitLeg = 60
)

// LegLimits override the per-mode travel ceilings, for plans that knowingly
// accept longer hops (a day trip out of the city).
type LegLimits struct {
	Walking int
	Transit int
}

// DefaultLegLimits are the ceilings Feasibility applies.
func DefaultLegLimits() LegLimits {
	return LegLimits{Walking: maxWalkingLeg, Transit: maxTransitLeg}
}

// Feasibility checks that each day fits its window, that travel legs stay
// within walking/transit scale, and that activity counts match the declared
// pace. Count below the pace band is soft (scarce data fills what it can);
// count above it, overlaps, and window breaches are hard.
func Feasibility(it *trip.Itinerary) Result {
	return FeasibilityWithLimits(it, DefaultLegLimits())
}

// FeasibilityWithLimits is Feasibility with explicit travel-leg ceilings.
func FeasibilityWithLimits(it *trip.Itinerary, limits LegLimits) Result {
	res := Result{Name: "feasibility"}
	var sc scorecard

	minPerDay, maxPerDay := it.Pace.ActivityBand()
	dayWindow := trip.DayEndMinute - trip.DayStartMinute

	for _, day := range it.Days {
		// Window fit.
		fits := day.TotalMinutes() <= dayWindow
		sc.check(fits, 2)
		if !fits {
			res.Violations = append(res.Violations,
				fmt.Sprintf("day %d needs %s but the window is %s", day.Day,
					trip.Clock(day.TotalMinutes()), trip.Clock(dayWindow)))
		} else if day.TotalMinutes() > dayWindow-60 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("day %d is tight but feasible", day.Day))
		}

		// Ordering and overlap inside each block.
		ordered := true
		for _, block := range day.Blocks {
			for i := 1; i < len(block.Activities); i++ {
				if block.Activities[i].StartMinute < block.Activities[i-1].EndMinute {
					ordered = false
					res.Violations = append(res.Violations,
						fmt.Sprintf("day %d %s: %q overlaps %q", day.Day, block.Name,
							block.Activities[i].POI.Name, block.Activities[i-1].POI.Name))
				}
			}
		}
		sc.check(ordered, 2)

		// Travel legs.
		legsOK := true
		for _, a := range day.Activities() {
			if a.TravelMinutesFromPrev == 0 {
				continue
			}
			limit := limits.Walking
			if a.TravelMethod == "transit" {
				limit = limits.Transit
			}
			if a.TravelMinutesFromPrev > limit {
				legsOK = false
				res.Violations = append(res.Violations,
					fmt.Sprintf("day %d: %d min %s leg to %q exceeds the %d min limit",
						day.Day, a.TravelMinutesFromPrev, a.TravelMethod, a.POI.Name, limit))
			}
		}
		sc.check(legsOK, 1)

		// Pace band.
		count := len(day.Activities())
		sc.check(count <= maxPerDay, 1)
		if count > maxPerDay {
			res.Violations = append(res.Violations,
				fmt.Sprintf("day %d has %d activities, above the %s ceiling of %d",
					day.Day, count, it.Pace, maxPerDay))
		} else if count < minPerDay {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("day %d has %d activities, below the %s pace of %d-%d",
					day.Day, count, it.Pace, minPerDay, maxPerDay))
		}
	}

	res.Score = sc.score()
	return res
}
