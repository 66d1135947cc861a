package scheduler

import (
	"context"
	"fmt"
	"math"

	"ai-trip-planner/internal/poi"
	"ai-trip-planner/internal/travel"
	"ai-trip-planner/internal/trip"

	"github.com/samber/lo"
)

// Builder allocates POI candidates into day/time-block slots under pace and
// travel-time constraints.
type Builder struct {
	source poi.Source
	travel travel.Estimator
}

// NewBuilder creates a Builder on top of the POI-search and travel-time
// collaborators.
func NewBuilder(source poi.Source, estimator travel.Estimator) *Builder {
	return &Builder{source: source, travel: estimator}
}

// BuildItinerary produces a full itinerary for the preferences. Fewer POIs
// than the pace requires is not an error: the days are filled with what
// exists and a warning is attached.
func (b *Builder) BuildItinerary(ctx context.Context, prefs trip.Preferences, used map[string]bool) (*trip.Itinerary, []string, error) {
	minPerDay, ceiling := prefs.Pace.ActivityBand()
	want := prefs.DurationDays * ceiling

	pois, err := b.source.SearchPOIs(ctx, prefs.City, prefs.Interests, poi.SearchConstraints{Limit: want * 2})
	if err != nil {
		return nil, nil, fmt.Errorf("poi search for %s failed: %w", prefs.City, err)
	}
	if len(pois) == 0 {
		return nil, nil, trip.NewCityNotFound(prefs.City, poi.SuggestAlternatives(prefs.City))
	}

	selected := SelectPOIs(pois, prefs.Interests, used, want)

	var warnings []string
	if len(selected) < prefs.DurationDays*minPerDay {
		warnings = append(warnings, fmt.Sprintf("limited data available for city %s", prefs.City))
	}

	clusters := ClusterByDay(selected, prefs.DurationDays, ceiling)

	it := &trip.Itinerary{City: prefs.City, Pace: prefs.Pace}
	for d := 0; d < prefs.DurationDays; d++ {
		ordered := applyMealAffinity(OrderByProximity(clusters[d]))
		day, dayWarnings, err := b.layoutDay(ctx, d+1, ordered, prefs.Pace)
		if err != nil {
			return nil, warnings, err
		}
		warnings = append(warnings, dayWarnings...)
		if placed := len(day.Activities()); placed < minPerDay {
			warnings = append(warnings, fmt.Sprintf("day %d has only %d activities for a %s pace", d+1, placed, prefs.Pace))
		}
		it.Days = append(it.Days, day)
	}

	return it, warnings, nil
}

// BuildDay regenerates a single day, excluding POIs placed on other days so
// the edit cannot duplicate the rest of the plan.
func (b *Builder) BuildDay(ctx context.Context, prefs trip.Preferences, dayIdx int, exclude []string, used map[string]bool) (trip.DayItinerary, []string, error) {
	_, ceiling := prefs.Pace.ActivityBand()

	pois, err := b.source.SearchPOIs(ctx, prefs.City, prefs.Interests, poi.SearchConstraints{
		ExcludeNames: exclude,
		Limit:        ceiling * 3,
	})
	if err != nil {
		return trip.DayItinerary{}, nil, fmt.Errorf("poi search for %s failed: %w", prefs.City, err)
	}
	if len(pois) == 0 {
		return trip.DayItinerary{}, nil, trip.NewPOIDataInsufficient(prefs.City, 0, ceiling)
	}

	selected := SelectPOIs(pois, prefs.Interests, used, ceiling)
	ordered := applyMealAffinity(OrderByProximity(selected))
	return b.layoutDay(ctx, dayIdx, ordered, prefs.Pace)
}

// BuildBlock regenerates one block of one day under extra search constraints
// (e.g. category "indoors" for a swap).
func (b *Builder) BuildBlock(ctx context.Context, prefs trip.Preferences, block trip.BlockName, constraints poi.SearchConstraints, capacity int) (trip.TimeBlock, []string, error) {
	if constraints.Limit == 0 {
		constraints.Limit = capacity * 3
	}
	pois, err := b.source.SearchPOIs(ctx, prefs.City, prefs.Interests, constraints)
	if err != nil {
		return trip.TimeBlock{}, nil, fmt.Errorf("poi search for %s failed: %w", prefs.City, err)
	}
	if len(pois) == 0 {
		return trip.TimeBlock{}, nil, trip.NewPOIDataInsufficient(prefs.City, 0, capacity)
	}

	selected := SelectPOIs(pois, prefs.Interests, nil, capacity)
	ordered := OrderByProximity(selected)
	return b.LayoutBlock(ctx, block, ordered, prefs.Pace, capacity)
}

// FindPOIs searches and ranks candidates without laying them out, for edits
// that splice a single new activity into an existing block.
func (b *Builder) FindPOIs(ctx context.Context, prefs trip.Preferences, constraints poi.SearchConstraints, n int) ([]trip.POI, error) {
	if constraints.Limit == 0 {
		constraints.Limit = n * 3
	}
	pois, err := b.source.SearchPOIs(ctx, prefs.City, prefs.Interests, constraints)
	if err != nil {
		return nil, fmt.Errorf("poi search for %s failed: %w", prefs.City, err)
	}
	if len(pois) == 0 {
		return nil, trip.NewPOIDataInsufficient(prefs.City, 0, n)
	}
	return SelectPOIs(pois, prefs.Interests, nil, n), nil
}

// Recluster rebuilds every day from the itinerary's existing POIs, grouped
// for minimum transit. Selection never changes: if the new layout cannot hold
// every existing activity, the caller gets an error instead of a lossy plan.
func (b *Builder) Recluster(ctx context.Context, it *trip.Itinerary) (*trip.Itinerary, []string, error) {
	all := lo.FlatMap(it.Days, func(d trip.DayItinerary, _ int) []trip.POI {
		return lo.Map(d.Activities(), func(a trip.Activity, _ int) trip.POI { return a.POI })
	})
	if len(all) == 0 {
		return it.Clone(), nil, nil
	}

	perDay := int(math.Ceil(float64(len(all)) / float64(len(it.Days))))
	clusters := ClusterByDay(all, len(it.Days), perDay)

	out := &trip.Itinerary{City: it.City, Pace: it.Pace}
	var warnings []string
	placed := 0
	for d := range clusters {
		ordered := applyMealAffinity(OrderByProximity(clusters[d]))
		day, dayWarnings, err := b.layoutDay(ctx, d+1, ordered, it.Pace)
		if err != nil {
			return nil, warnings, err
		}
		warnings = append(warnings, dayWarnings...)
		placed += len(day.Activities())
		out.Days = append(out.Days, day)
	}

	if placed < len(all) {
		return nil, warnings, trip.NewEditValidation(
			fmt.Sprintf("reducing travel would drop %d activities", len(all)-placed))
	}
	return out, warnings, nil
}
