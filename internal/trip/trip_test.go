package trip

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
)

func sampleItinerary() *Itinerary {
	day := NewDayItinerary(1)
	day.Block(BlockMorning).Activities = []Activity{{
		POI:         POI{Name: "Amber Fort", Category: "fort", Location: orb.Point{75.85, 26.98}, SourceID: "s1"},
		StartMinute: 540,
		EndMinute:   660,
	}}
	return &Itinerary{City: "Jaipur", Pace: PaceModerate, Days: []DayItinerary{day}}
}

func TestCloneIsDeep(t *testing.T) {
	it := sampleItinerary()
	c := it.Clone()

	c.Days[0].Block(BlockMorning).Activities[0].POI.Name = "Changed"
	c.City = "Elsewhere"

	if it.Days[0].Block(BlockMorning).Activities[0].POI.Name != "Amber Fort" {
		t.Error("clone shares activity storage with the original")
	}
	if it.City != "Jaipur" {
		t.Error("clone shares top-level fields")
	}
}

func TestCloneMarshalsIdentically(t *testing.T) {
	// The fixture's afternoon and evening blocks are empty (nil). A clone must
	// keep that representation, or empty blocks look changed to a byte-level
	// comparison.
	it := sampleItinerary()
	c := it.Clone()

	orig, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	cloned, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(orig) != string(cloned) {
		t.Errorf("clone encodes differently:\n%s\n%s", orig, cloned)
	}
	if c.Days[0].Block(BlockEvening).Activities != nil {
		t.Error("empty block gained a non-nil activity slice")
	}
}

func TestCloneNil(t *testing.T) {
	var it *Itinerary
	if it.Clone() != nil {
		t.Error("nil itinerary must clone to nil")
	}
}

func TestClock(t *testing.T) {
	cases := map[int]string{0: "00:00", 540: "09:00", 750: "12:30", 1320: "22:00"}
	for minute, want := range cases {
		if got := Clock(minute); got != want {
			t.Errorf("Clock(%d) = %q, want %q", minute, got, want)
		}
	}
}

func TestPaceActivityBand(t *testing.T) {
	if min, max := PaceRelaxed.ActivityBand(); min != 2 || max != 3 {
		t.Errorf("relaxed band = %d-%d", min, max)
	}
	if min, max := PaceModerate.ActivityBand(); min != 3 || max != 4 {
		t.Errorf("moderate band = %d-%d", min, max)
	}
	if min, max := PaceFast.ActivityBand(); min != 4 || max != 5 {
		t.Errorf("fast band = %d-%d", min, max)
	}
}

func TestMissingFieldsOrder(t *testing.T) {
	got := Preferences{}.MissingFields()
	want := []string{FieldCity, FieldDuration, FieldInterests, FieldPace}
	if len(got) != len(want) {
		t.Fatalf("missing = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("question order broken at %d: %v", i, got)
		}
	}

	p := Preferences{City: "Jaipur", DurationDays: 2, Interests: []string{"food"}, Pace: PaceFast}
	if !p.Complete() {
		t.Error("fully set preferences reported incomplete")
	}
}

func TestEditIntentValidate(t *testing.T) {
	cases := []struct {
		name   string
		intent EditIntent
		days   int
		ok     bool
	}{
		{"pace ok", EditIntent{Op: EditChangePace, Day: 1, Pace: PaceRelaxed}, 2, true},
		{"pace missing", EditIntent{Op: EditChangePace, Day: 1}, 2, false},
		{"day out of range", EditIntent{Op: EditChangePace, Day: 5, Pace: PaceFast}, 2, false},
		{"swap same day", EditIntent{Op: EditSwapDays, Day: 1, OtherDay: 1}, 3, false},
		{"swap ok", EditIntent{Op: EditSwapDays, Day: 1, OtherDay: 3}, 3, true},
		{"move same block", EditIntent{Op: EditMoveBlock, Day: 1, Block: BlockMorning, ToBlock: BlockMorning}, 1, false},
		{"remove without name", EditIntent{Op: EditRemoveActivity, Day: 1, Block: BlockMorning}, 1, false},
		{"reduce travel", EditIntent{Op: EditReduceTravel}, 3, true},
		{"unknown op", EditIntent{Op: "TELEPORT"}, 1, false},
	}
	for _, tc := range cases {
		err := tc.intent.Validate(tc.days)
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestEditIntentLocators(t *testing.T) {
	global := EditIntent{Op: EditReduceTravel}.Locators(3)
	if len(global) != 3 {
		t.Errorf("REDUCE_TRAVEL must cover every day, got %v", global)
	}

	added := EditIntent{Op: EditAddDay}.Locators(3)
	if len(added) != 1 || added[0].Day != 4 {
		t.Errorf("ADD_DAY must cover only the appended day, got %v", added)
	}

	move := EditIntent{Op: EditMoveBlock, Day: 2, Block: BlockMorning, ToBlock: BlockEvening}.Locators(3)
	if len(move) != 2 || move[0].Block != BlockMorning || move[1].Block != BlockEvening {
		t.Errorf("MOVE_BLOCK must cover both blocks, got %v", move)
	}
}

func TestErrorKindAndRecoverable(t *testing.T) {
	if KindOf(NewCityNotFound("X", nil)) != KindCityNotFound {
		t.Error("KindOf lost the city-not-found kind")
	}
	if KindOf(nil) != "" {
		t.Error("KindOf(nil) must be empty")
	}
	if NewSessionNotFound("x").Recoverable() {
		t.Error("SESSION_NOT_FOUND must not be recoverable")
	}
	if !NewPOIDataInsufficient("Jaipur", 2, 6).Recoverable() {
		t.Error("POI_DATA_INSUFFICIENT must be recoverable")
	}
}
