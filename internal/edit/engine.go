package edit

import (
	"context"
	"fmt"
	"strings"

	"ai-trip-planner/internal/poi"
	"ai-trip-planner/internal/scheduler"
	"ai-trip-planner/internal/trip"
)

// Engine applies exactly one EditIntent to an itinerary, re-invoking the
// scheduler on the minimal affected slice. Every result is diffed against
// the input before it is returned; an out-of-scope difference aborts the
// edit with an EditValidationError.
type Engine struct {
	builder *scheduler.Builder
}

// NewEngine creates an Engine on top of the scheduler.
func NewEngine(builder *scheduler.Builder) *Engine {
	return &Engine{builder: builder}
}

// Apply mutates a copy of the itinerary per the intent and returns it with
// any scheduler warnings. The input itinerary is never modified.
func (e *Engine) Apply(ctx context.Context, it *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences, used map[string]bool) (*trip.Itinerary, []string, error) {
	if err := intent.Validate(len(it.Days)); err != nil {
		return nil, nil, trip.NewEditValidation(err.Error())
	}

	result, warnings, err := e.mutate(ctx, it.Clone(), intent, prefs, used)
	if err != nil {
		return nil, warnings, err
	}

	// Scope guard: anything changed outside the declared locators kills the
	// edit before it reaches the orchestrator.
	changed := ChangedLocators(it, result)
	declared := intent.Locators(len(it.Days))
	if extra := OutOfScope(changed, declared); len(extra) > 0 {
		return nil, warnings, trip.NewEditValidation(
			fmt.Sprintf("edit %s changed %v outside its declared scope %v", intent.Op, extra, declared))
	}

	return result, warnings, nil
}

func (e *Engine) mutate(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences, used map[string]bool) (*trip.Itinerary, []string, error) {
	switch intent.Op {
	case trip.EditChangePace:
		return e.changePace(ctx, work, intent, prefs)
	case trip.EditSwapActivity:
		return e.swapActivity(ctx, work, intent, prefs)
	case trip.EditSwapDays:
		return swapDays(work, intent)
	case trip.EditMoveBlock:
		return e.moveBlock(ctx, work, intent)
	case trip.EditAddActivity:
		return e.addActivity(ctx, work, intent, prefs)
	case trip.EditAddDay:
		return e.addDay(ctx, work, prefs, used)
	case trip.EditRemoveActivity:
		return e.removeActivity(ctx, work, intent)
	case trip.EditReduceTravel:
		return e.builder.Recluster(ctx, work)
	case trip.EditRegenerateBlock:
		return e.regenerateBlock(ctx, work, intent, prefs)
	default:
		return nil, nil, trip.NewEditValidation(fmt.Sprintf("unknown edit operation %q", intent.Op))
	}
}

// changePace rebuilds one day at a different pace, holding every other day
// identical.
func (e *Engine) changePace(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences) (*trip.Itinerary, []string, error) {
	dayPrefs := prefs
	dayPrefs.Pace = intent.Pace

	day, warnings, err := e.builder.BuildDay(ctx, dayPrefs, intent.Day, poiNamesExcept(work, intent.Day), nil)
	if err != nil {
		return nil, warnings, err
	}
	work.Days[intent.Day-1] = day
	return work, warnings, nil
}

// swapActivity replaces one block's activity set under a category constraint
// ("something indoors"), holding the rest of the day and all other days.
func (e *Engine) swapActivity(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences) (*trip.Itinerary, []string, error) {
	day := work.Day(intent.Day)
	block := day.Block(intent.Block)

	capacity := len(block.Activities)
	if capacity == 0 {
		capacity = 1
	}

	constraints := categoryConstraints(intent.Category)
	constraints.ExcludeNames = poiNamesExcept(work, 0)

	rebuilt, warnings, err := e.builder.BuildBlock(ctx, prefs, intent.Block, constraints, capacity)
	if err != nil {
		return nil, warnings, err
	}
	*block = rebuilt
	return work, warnings, nil
}

// swapDays exchanges the contents of two days. Block windows are identical
// across days, so the activities keep their assigned times.
func swapDays(work *trip.Itinerary, intent trip.EditIntent) (*trip.Itinerary, []string, error) {
	a, b := work.Day(intent.Day), work.Day(intent.OtherDay)
	a.Blocks, b.Blocks = b.Blocks, a.Blocks
	return work, nil, nil
}

// moveBlock relocates a block's activities into another block of the same
// day, re-timing them inside the destination window.
func (e *Engine) moveBlock(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent) (*trip.Itinerary, []string, error) {
	day := work.Day(intent.Day)
	src := day.Block(intent.Block)
	dst := day.Block(intent.ToBlock)

	moved := blockPOIs(*src)
	if len(moved) == 0 {
		return work, nil, nil
	}
	combined := append(blockPOIs(*dst), moved...)

	rebuilt, warnings, err := e.builder.LayoutBlock(ctx, intent.ToBlock, combined, work.Pace, 0)
	if err != nil {
		return nil, warnings, err
	}
	if len(rebuilt.Activities) < len(combined) {
		return nil, warnings, trip.NewEditValidation(
			fmt.Sprintf("moving %s to %s does not fit the %s window", intent.Block, intent.ToBlock, intent.ToBlock))
	}

	src.Activities = nil
	*dst = rebuilt
	return work, warnings, nil
}

// addActivity splices one new POI into a block and re-times it.
func (e *Engine) addActivity(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences) (*trip.Itinerary, []string, error) {
	day := work.Day(intent.Day)
	block := day.Block(intent.Block)

	constraints := categoryConstraints(intent.Category)
	constraints.ExcludeNames = poiNamesExcept(work, 0)

	candidates, err := e.builder.FindPOIs(ctx, prefs, constraints, 1)
	if err != nil {
		return nil, nil, err
	}

	combined := append(blockPOIs(*block), candidates[0])
	rebuilt, warnings, err := e.builder.LayoutBlock(ctx, intent.Block, combined, work.Pace, 0)
	if err != nil {
		return nil, warnings, err
	}
	if len(rebuilt.Activities) < len(combined) {
		return nil, warnings, trip.NewEditValidation(
			fmt.Sprintf("no room left in day %d %s for another activity", intent.Day, intent.Block))
	}

	*block = rebuilt
	return work, warnings, nil
}

// addDay appends a fresh day at the same pace, never touching existing days.
func (e *Engine) addDay(ctx context.Context, work *trip.Itinerary, prefs trip.Preferences, used map[string]bool) (*trip.Itinerary, []string, error) {
	day, warnings, err := e.builder.BuildDay(ctx, prefs, len(work.Days)+1, poiNamesExcept(work, 0), used)
	if err != nil {
		return nil, warnings, err
	}
	work.Days = append(work.Days, day)
	return work, warnings, nil
}

// removeActivity drops the named activity from its block and re-times the rest.
func (e *Engine) removeActivity(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent) (*trip.Itinerary, []string, error) {
	day := work.Day(intent.Day)
	block := day.Block(intent.Block)

	var remaining []trip.POI
	found := false
	for _, a := range block.Activities {
		if !found && matchesActivity(a, intent.Activity) {
			found = true
			continue
		}
		remaining = append(remaining, a.POI)
	}
	if !found {
		return nil, nil, trip.NewEditValidation(
			fmt.Sprintf("no activity matching %q in day %d %s", intent.Activity, intent.Day, intent.Block))
	}

	if len(remaining) == 0 {
		block.Activities = nil
		return work, nil, nil
	}

	rebuilt, warnings, err := e.builder.LayoutBlock(ctx, intent.Block, remaining, work.Pace, 0)
	if err != nil {
		return nil, warnings, err
	}
	*block = rebuilt
	return work, warnings, nil
}

// regenerateBlock rebuilds one block from fresh POIs at the same capacity.
func (e *Engine) regenerateBlock(ctx context.Context, work *trip.Itinerary, intent trip.EditIntent, prefs trip.Preferences) (*trip.Itinerary, []string, error) {
	day := work.Day(intent.Day)
	block := day.Block(intent.Block)

	capacity := len(block.Activities)
	if capacity == 0 {
		capacity = 2
	}

	rebuilt, warnings, err := e.builder.BuildBlock(ctx, prefs, intent.Block, poi.SearchConstraints{
		ExcludeNames: poiNamesExcept(work, 0),
	}, capacity)
	if err != nil {
		return nil, warnings, err
	}
	*block = rebuilt
	return work, warnings, nil
}

// matchesActivity matches an utterance reference against an activity name,
// case-insensitively, allowing partial mentions ("the fort").
func matchesActivity(a trip.Activity, ref string) bool {
	name := strings.ToLower(a.POI.Name)
	ref = strings.ToLower(strings.TrimSpace(ref))
	return name == ref || strings.Contains(name, ref)
}

// poiNamesExcept collects every POI name in the itinerary, skipping one day
// (0 = skip none). Used as an exclusion list so regenerated slices cannot
// duplicate the rest of the plan.
func poiNamesExcept(it *trip.Itinerary, skipDay int) []string {
	var names []string
	for _, d := range it.Days {
		if d.Day == skipDay {
			continue
		}
		for _, a := range d.Activities() {
			names = append(names, a.POI.Name)
		}
	}
	return names
}

func blockPOIs(b trip.TimeBlock) []trip.POI {
	var out []trip.POI
	for _, a := range b.Activities {
		out = append(out, a.POI)
	}
	return out
}

// categoryConstraints maps a spoken category ("indoors") onto search
// constraints.
func categoryConstraints(category string) poi.SearchConstraints {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "indoor" || c == "indoors" || c == "inside" {
		return poi.SearchConstraints{IndoorOnly: true}
	}
	if c == "" {
		return poi.SearchConstraints{}
	}
	return poi.SearchConstraints{Category: c}
}
