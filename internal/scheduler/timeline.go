package scheduler

import (
	"context"
	"fmt"
	"strings"

	"ai-trip-planner/internal/poi"
	"ai-trip-planner/internal/travel"
	"ai-trip-planner/internal/trip"
)

// paceDurationFactor stretches or compresses visit durations: a relaxed day
// lingers, a fast day keeps moving.
func paceDurationFactor(p trip.Pace) float64 {
	switch p {
	case trip.PaceRelaxed:
		return 1.25
	case trip.PaceFast:
		return 0.8
	default:
		return 1.0
	}
}

// visitMinutes returns the pace-adjusted visit duration and whether it was
// substituted from a category default.
func visitMinutes(p trip.POI, pace trip.Pace) (int, bool) {
	base := p.VisitMinutes
	estimated := false
	if base <= 0 {
		base = poi.DefaultVisitMinutes(p.Category)
		estimated = true
	}
	return int(float64(base) * paceDurationFactor(pace)), estimated
}

// walkable legs stay on foot; longer hops switch to transit.
const maxWalkingLegMinutes = 30

// estimateLeg picks a mode for the leg: walking when it fits the walking
// ceiling, transit otherwise. estimated reports whether the time came from
// straight-line distance rather than a real lookup, so grounding can disclose it.
func (b *Builder) estimateLeg(ctx context.Context, from, to trip.POI) (minutes int, mode string, estimated bool, err error) {
	est, err := b.travel.EstimateTravelTime(ctx, from.Location, to.Location, travel.ModeWalking)
	if err != nil {
		return 0, "", false, fmt.Errorf("travel estimate failed: %w", err)
	}
	if est.Minutes <= maxWalkingLegMinutes {
		return est.Minutes, string(travel.ModeWalking), est.Method == "distance_estimate", nil
	}
	est, err = b.travel.EstimateTravelTime(ctx, from.Location, to.Location, travel.ModeTransit)
	if err != nil {
		return 0, "", false, fmt.Errorf("travel estimate failed: %w", err)
	}
	return est.Minutes, string(travel.ModeTransit), est.Method == "distance_estimate", nil
}

// applyMealAffinity nudges one food-like POI to the end of the chain so it
// lands in the evening block. This is the only opening-hours-like constraint
// the data model knows about.
func applyMealAffinity(ordered []trip.POI) []trip.POI {
	for i, p := range ordered {
		c := strings.ToLower(p.Category)
		if c == "food" || c == "restaurant" || c == "market" {
			if i == len(ordered)-1 {
				return ordered
			}
			out := append([]trip.POI(nil), ordered[:i]...)
			out = append(out, ordered[i+1:]...)
			return append(out, p)
		}
	}
	return ordered
}

// layoutDay assigns start times sequentially from 09:00, inserting travel
// between consecutive activities and spilling into later blocks as earlier
// ones fill. It stops at the pace ceiling or when the day window runs out.
func (b *Builder) layoutDay(ctx context.Context, dayIdx int, ordered []trip.POI, pace trip.Pace) (trip.DayItinerary, []string, error) {
	day := trip.NewDayItinerary(dayIdx)
	_, ceiling := pace.ActivityBand()

	var warnings []string
	cursor := trip.DayStartMinute
	blockIdx := 0
	placed := 0
	var prev *trip.POI

	for i := range ordered {
		if placed >= ceiling {
			break
		}
		p := ordered[i]

		travelMin, mode, travelEstimated := 0, "", false
		if prev != nil {
			var err error
			travelMin, mode, travelEstimated, err = b.estimateLeg(ctx, *prev, p)
			if err != nil {
				return day, warnings, err
			}
		}

		dur, estimated := visitMinutes(p, pace)
		start := cursor + travelMin

		// Find the first block whose window still fits this visit.
		for blockIdx < len(day.Blocks) {
			bStart, bEnd := day.Blocks[blockIdx].Name.Bounds()
			if start < bStart {
				start = bStart
			}
			if start+dur <= bEnd {
				break
			}
			blockIdx++
		}
		if blockIdx >= len(day.Blocks) || start+dur > trip.DayEndMinute {
			break // day window exceeded
		}

		if estimated {
			warnings = append(warnings, fmt.Sprintf("visit duration for %q is a %s-category estimate", p.Name, strings.ToLower(p.Category)))
		}

		day.Blocks[blockIdx].Activities = append(day.Blocks[blockIdx].Activities, trip.Activity{
			POI:                   p,
			StartMinute:           start,
			EndMinute:             start + dur,
			TravelMinutesFromPrev: travelMin,
			TravelMethod:          mode,
			TravelEstimated:       travelEstimated,
			DurationEstimated:     estimated,
		})
		cursor = start + dur
		prev = &ordered[i]
		placed++
	}

	return day, warnings, nil
}

// LayoutBlock places POIs into a single named block, used when regenerating
// one block of an existing day.
func (b *Builder) LayoutBlock(ctx context.Context, name trip.BlockName, ordered []trip.POI, pace trip.Pace, cap int) (trip.TimeBlock, []string, error) {
	block := trip.TimeBlock{Name: name}
	bStart, bEnd := name.Bounds()

	var warnings []string
	cursor := bStart
	var prev *trip.POI

	for i := range ordered {
		if cap > 0 && len(block.Activities) >= cap {
			break
		}
		p := ordered[i]

		travelMin, mode, travelEstimated := 0, "", false
		if prev != nil {
			var err error
			travelMin, mode, travelEstimated, err = b.estimateLeg(ctx, *prev, p)
			if err != nil {
				return block, warnings, err
			}
		}

		dur, estimated := visitMinutes(p, pace)
		start := cursor + travelMin
		if start+dur > bEnd {
			break
		}

		if estimated {
			warnings = append(warnings, fmt.Sprintf("visit duration for %q is a %s-category estimate", p.Name, strings.ToLower(p.Category)))
		}

		block.Activities = append(block.Activities, trip.Activity{
			POI:                   p,
			StartMinute:           start,
			EndMinute:             start + dur,
			TravelMinutesFromPrev: travelMin,
			TravelMethod:          mode,
			TravelEstimated:       travelEstimated,
			DurationEstimated:     estimated,
		})
		cursor = start + dur
		prev = &ordered[i]
	}

	return block, warnings, nil
}
