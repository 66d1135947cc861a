package eval

import (
	"strings"
	"testing"

	"ai-trip-planner/internal/trip"

	"github.com/paulmach/orb"
)

func poiFixture(name, sourceID string) trip.POI {
	return trip.POI{
		Name:         name,
		Category:     "sightseeing",
		Location:     orb.Point{75.82, 26.92},
		VisitMinutes: 90,
		SourceID:     sourceID,
		Rating:       4.4,
		Description:  "fixture",
	}
}

func itineraryFixture() *trip.Itinerary {
	it := &trip.Itinerary{City: "Jaipur", Pace: trip.PaceModerate}
	for d := 1; d <= 2; d++ {
		day := trip.NewDayItinerary(d)
		day.Block(trip.BlockMorning).Activities = []trip.Activity{
			{POI: poiFixture("Amber Fort", "poi-1"), StartMinute: 540, EndMinute: 630},
			{POI: poiFixture("City Palace", "poi-2"), StartMinute: 645, EndMinute: 735, TravelMinutesFromPrev: 15, TravelMethod: "walking"},
		}
		day.Block(trip.BlockAfternoon).Activities = []trip.Activity{
			{POI: poiFixture("Jantar Mantar", "poi-3"), StartMinute: 780, EndMinute: 870, TravelMinutesFromPrev: 10, TravelMethod: "walking"},
		}
		it.Days = append(it.Days, day)
	}
	return it
}

func TestFeasibilityPasses(t *testing.T) {
	res := Feasibility(itineraryFixture())
	if !res.Passed() {
		t.Fatalf("expected no violations, got %v", res.Violations)
	}
	if res.Score != 1.0 {
		t.Errorf("expected score 1.0, got %f", res.Score)
	}
}

func TestFeasibilityFlagsOverlap(t *testing.T) {
	it := itineraryFixture()
	block := it.Days[0].Block(trip.BlockMorning)
	block.Activities[1].StartMinute = 600 // overlaps the first activity

	res := Feasibility(it)
	if res.Passed() {
		t.Fatal("expected an overlap violation")
	}
	if !strings.Contains(strings.Join(res.Violations, "; "), "overlaps") {
		t.Errorf("unexpected violations: %v", res.Violations)
	}
}

func TestFeasibilityFlagsLongWalk(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockMorning).Activities[1].TravelMinutesFromPrev = 45

	res := Feasibility(it)
	if res.Passed() {
		t.Fatal("expected a travel-leg violation")
	}
}

func TestFeasibilityLegLimitOverride(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockMorning).Activities[1].TravelMinutesFromPrev = 45

	res := FeasibilityWithLimits(it, LegLimits{Walking: 50, Transit: 90})
	if !res.Passed() {
		t.Fatalf("overridden walking ceiling still violated: %v", res.Violations)
	}
}

func TestFeasibilityPaceBandIsSoftBelowMin(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockAfternoon).Activities = nil

	res := Feasibility(it)
	if !res.Passed() {
		t.Fatalf("below-minimum count must be a warning, got violations %v", res.Violations)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a below-pace warning")
	}
}

func TestEditCorrectnessInScope(t *testing.T) {
	before := itineraryFixture()
	after := before.Clone()
	after.Days[1].Block(trip.BlockMorning).Activities[0].POI.Name = "Hawa Mahal"

	intent := trip.EditIntent{Op: trip.EditSwapActivity, Day: 2, Block: trip.BlockMorning, Activity: "Amber Fort"}
	res := EditCorrectness(before, after, intent)
	if !res.Passed() {
		t.Fatalf("in-scope edit flagged: %v", res.Violations)
	}
}

func TestEditCorrectnessOutOfScope(t *testing.T) {
	before := itineraryFixture()
	after := before.Clone()
	// Declared scope is day 2 morning, but day 1 changed too.
	after.Days[1].Block(trip.BlockMorning).Activities[0].POI.Name = "Hawa Mahal"
	after.Days[0].Block(trip.BlockAfternoon).Activities[0].POI.Name = "Albert Hall"

	intent := trip.EditIntent{Op: trip.EditSwapActivity, Day: 2, Block: trip.BlockMorning, Activity: "Amber Fort"}
	res := EditCorrectness(before, after, intent)
	if res.Passed() {
		t.Fatal("expected an out-of-scope violation")
	}
}

func TestEditCorrectnessNoOpIsWarning(t *testing.T) {
	before := itineraryFixture()
	after := before.Clone()

	intent := trip.EditIntent{Op: trip.EditChangePace, Day: 1, Pace: trip.PaceModerate}
	res := EditCorrectness(before, after, intent)
	if !res.Passed() {
		t.Fatalf("no-op edit must not violate: %v", res.Violations)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected an unchanged-scope warning")
	}
}

func TestGroundingRequiresSourceID(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockMorning).Activities[0].POI.SourceID = ""

	res := Grounding(it)
	if res.Passed() {
		t.Fatal("expected a missing-source violation")
	}
}

func TestGroundingCollectsUncertainData(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockMorning).Activities[0].DurationEstimated = true

	res := Grounding(it)
	if !res.Passed() {
		t.Fatalf("estimates are not violations: %v", res.Violations)
	}
	if len(res.UncertainData) == 0 {
		t.Error("expected estimated duration in uncertain data")
	}
}

func TestGroundingDisclosesEstimatedTravel(t *testing.T) {
	it := itineraryFixture()
	it.Days[0].Block(trip.BlockMorning).Activities[1].TravelEstimated = true

	res := Grounding(it)
	if !res.Passed() {
		t.Fatalf("estimated travel is not a violation: %v", res.Violations)
	}
	found := false
	for _, u := range res.UncertainData {
		if strings.Contains(u, "straight-line distance") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the estimated leg in uncertain data, got %v", res.UncertainData)
	}
}

func TestExplanationGrounding(t *testing.T) {
	res := ExplanationGrounding("Amber Fort opens at 09:00.", []string{"poi-1"}, false)
	if !res.Passed() {
		t.Fatalf("cited explanation flagged: %v", res.Violations)
	}

	res = ExplanationGrounding("It is probably open in the morning.", nil, false)
	if res.Passed() {
		t.Fatal("uncited explanation must violate")
	}

	res = ExplanationGrounding("I have no source on opening hours.", nil, true)
	if !res.Passed() {
		t.Fatalf("honest no-source answer flagged: %v", res.Violations)
	}
	if len(res.UncertainData) == 0 {
		t.Error("expected uncertain-data note for no-source answer")
	}
}

func TestRunRecoversPanic(t *testing.T) {
	_, err := Run("feasibility", func() Result { panic("boom") })
	if err == nil {
		t.Fatal("expected an error from a panicking evaluator")
	}
	if trip.KindOf(err) != trip.KindEvaluation {
		t.Errorf("expected EVALUATION_FAILED, got %v", trip.KindOf(err))
	}
}
