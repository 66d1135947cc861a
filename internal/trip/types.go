package trip

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Pace declares the density of activities per day.
type Pace string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// ActivityBand returns the inclusive per-day activity count range for the pace.
func (p Pace) ActivityBand() (min, max int) {
	switch p {
	case PaceRelaxed:
		return 2, 3
	case PaceFast:
		return 4, 5
	default:
		return 3, 4
	}
}

// Valid reports whether p is one of the three known paces.
func (p Pace) Valid() bool {
	return p == PaceRelaxed || p == PaceModerate || p == PaceFast
}

// Preferences accumulates what we know about the requested trip. Fields are
// filled incrementally across turns and frozen once an itinerary exists.
type Preferences struct {
	City         string   `json:"city"`
	DurationDays int      `json:"duration_days"`
	Interests    []string `json:"interests"`
	Pace         Pace     `json:"pace"`
	Budget       string   `json:"budget,omitempty"`
}

// Mandatory preference field names, in the order clarifying questions are asked.
const (
	FieldCity      = "city"
	FieldDuration  = "duration_days"
	FieldInterests = "interests"
	FieldPace      = "pace"
)

// MissingFields lists the mandatory fields still unset, in question order.
func (p Preferences) MissingFields() []string {
	var missing []string
	if p.City == "" {
		missing = append(missing, FieldCity)
	}
	if p.DurationDays <= 0 {
		missing = append(missing, FieldDuration)
	}
	if len(p.Interests) == 0 {
		missing = append(missing, FieldInterests)
	}
	if !p.Pace.Valid() {
		missing = append(missing, FieldPace)
	}
	return missing
}

// Complete reports whether all mandatory fields are set.
func (p Preferences) Complete() bool {
	return len(p.MissingFields()) == 0
}

// POI is a candidate place supplied by the search collaborator. Read-only to
// the core; SourceID is mandatory for grounding.
type POI struct {
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Location     orb.Point `json:"location"`
	VisitMinutes int       `json:"visit_minutes"`
	Indoor       bool      `json:"indoor"`
	SourceID     string    `json:"source_id"`
	Rating       float64   `json:"rating,omitempty"`
	Description  string    `json:"description,omitempty"`
}

// MetadataComplete reports whether the POI carries full optional metadata.
// Used as the last scheduling tie-break.
func (p POI) MetadataComplete() bool {
	return p.VisitMinutes > 0 && p.Rating > 0 && p.Description != ""
}

// Activity is a POI placed in the schedule. Times are minutes since midnight.
// TravelEstimated marks a leg whose time came from straight-line distance
// rather than a real lookup.
type Activity struct {
	POI                   POI    `json:"poi"`
	StartMinute           int    `json:"start_minute"`
	EndMinute             int    `json:"end_minute"`
	TravelMinutesFromPrev int    `json:"travel_minutes_from_previous"`
	TravelMethod          string `json:"travel_method,omitempty"`
	TravelEstimated       bool   `json:"travel_estimated,omitempty"`
	DurationEstimated     bool   `json:"duration_estimated,omitempty"`
}

// SourceID returns the citation for the activity's underlying POI.
func (a Activity) SourceID() string {
	return a.POI.SourceID
}

// BlockName identifies one of the three time blocks of a day.
type BlockName string

const (
	BlockMorning   BlockName = "morning"
	BlockAfternoon BlockName = "afternoon"
	BlockEvening   BlockName = "evening"
)

// BlockNames lists the blocks in schedule order.
var BlockNames = []BlockName{BlockMorning, BlockAfternoon, BlockEvening}

// Valid reports whether b is a known block name.
func (b BlockName) Valid() bool {
	return b == BlockMorning || b == BlockAfternoon || b == BlockEvening
}

// Bounds returns the block's time window in minutes since midnight.
// Morning 09:00-12:30, afternoon 12:30-18:00, evening 18:00-22:00.
func (b BlockName) Bounds() (start, end int) {
	switch b {
	case BlockMorning:
		return 9 * 60, 12*60 + 30
	case BlockAfternoon:
		return 12*60 + 30, 18 * 60
	default:
		return 18 * 60, 22 * 60
	}
}

// Day window bounds: 09:00-22:00.
const (
	DayStartMinute = 9 * 60
	DayEndMinute   = 22 * 60
)

// TimeBlock holds the ordered activities of one block.
type TimeBlock struct {
	Name       BlockName  `json:"name"`
	Activities []Activity `json:"activities"`
}

// DayItinerary is one day of the trip: the three blocks plus the day index (1-based).
type DayItinerary struct {
	Day    int         `json:"day"`
	Blocks []TimeBlock `json:"blocks"`
}

// NewDayItinerary returns an empty day with the three blocks in order.
func NewDayItinerary(day int) DayItinerary {
	blocks := make([]TimeBlock, 0, len(BlockNames))
	for _, name := range BlockNames {
		blocks = append(blocks, TimeBlock{Name: name})
	}
	return DayItinerary{Day: day, Blocks: blocks}
}

// Block returns a pointer to the named block, or nil.
func (d *DayItinerary) Block(name BlockName) *TimeBlock {
	for i := range d.Blocks {
		if d.Blocks[i].Name == name {
			return &d.Blocks[i]
		}
	}
	return nil
}

// Activities returns the day's activities across blocks, in schedule order.
func (d DayItinerary) Activities() []Activity {
	var out []Activity
	for _, b := range d.Blocks {
		out = append(out, b.Activities...)
	}
	return out
}

// TotalMinutes is the day's scheduled visit plus travel time.
func (d DayItinerary) TotalMinutes() int {
	total := 0
	for _, a := range d.Activities() {
		total += (a.EndMinute - a.StartMinute) + a.TravelMinutesFromPrev
	}
	return total
}

// Itinerary is the full plan, owned by the session.
type Itinerary struct {
	City string         `json:"city"`
	Pace Pace           `json:"pace"`
	Days []DayItinerary `json:"days"`
}

// Day returns a pointer to the 1-based day, or nil.
func (it *Itinerary) Day(day int) *DayItinerary {
	if it == nil || day < 1 || day > len(it.Days) {
		return nil
	}
	return &it.Days[day-1]
}

// Clone returns a deep copy safe to mutate independently.
func (it *Itinerary) Clone() *Itinerary {
	if it == nil {
		return nil
	}
	out := &Itinerary{City: it.City, Pace: it.Pace}
	out.Days = make([]DayItinerary, len(it.Days))
	for i, d := range it.Days {
		nd := DayItinerary{Day: d.Day, Blocks: make([]TimeBlock, len(d.Blocks))}
		for j, b := range d.Blocks {
			// Activity is all value types (orb.Point is an array), so copy is
			// deep. An empty block stays nil so the clone marshals identically
			// to its original.
			nb := TimeBlock{Name: b.Name}
			if len(b.Activities) > 0 {
				nb.Activities = make([]Activity, len(b.Activities))
				copy(nb.Activities, b.Activities)
			}
			nd.Blocks[j] = nb
		}
		out.Days[i] = nd
	}
	return out
}

// Clock formats minutes since midnight as HH:MM.
func Clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
