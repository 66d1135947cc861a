package trip

import "fmt"

// EditOp is the closed set of edit operations.
type EditOp string

const (
	EditChangePace      EditOp = "CHANGE_PACE"
	EditSwapActivity    EditOp = "SWAP_ACTIVITY"
	EditSwapDays        EditOp = "SWAP_DAYS"
	EditMoveBlock       EditOp = "MOVE_BLOCK"
	EditAddActivity     EditOp = "ADD_ACTIVITY"
	EditAddDay          EditOp = "ADD_DAY"
	EditRemoveActivity  EditOp = "REMOVE_ACTIVITY"
	EditReduceTravel    EditOp = "REDUCE_TRAVEL"
	EditRegenerateBlock EditOp = "REGENERATE_BLOCK"
)

// Locator addresses the slice of an itinerary an edit is scoped to.
// Block empty means the whole day.
type Locator struct {
	Day   int       `json:"day"`
	Block BlockName `json:"block,omitempty"`
}

func (l Locator) String() string {
	if l.Block == "" {
		return fmt.Sprintf("day %d", l.Day)
	}
	return fmt.Sprintf("day %d %s", l.Day, l.Block)
}

// EditIntent is one requested mutation with the minimal target locator for
// its operation. Unused fields stay zero.
type EditIntent struct {
	Op       EditOp    `json:"op"`
	Day      int       `json:"day,omitempty"`
	OtherDay int       `json:"other_day,omitempty"` // SWAP_DAYS second day
	Block    BlockName `json:"block,omitempty"`
	ToBlock  BlockName `json:"to_block,omitempty"` // MOVE_BLOCK destination
	Activity string    `json:"activity,omitempty"` // activity name reference
	Pace     Pace      `json:"pace,omitempty"`     // CHANGE_PACE target
	Category string    `json:"category,omitempty"` // SWAP/ADD activity constraint
}

// Global reports whether the edit is allowed to touch every day.
func (e EditIntent) Global() bool {
	return e.Op == EditReduceTravel
}

// Locators returns the declared mutation scope against an itinerary with
// dayCount days. Global edits return every day; ADD_DAY returns the appended
// day only.
func (e EditIntent) Locators(dayCount int) []Locator {
	switch e.Op {
	case EditReduceTravel:
		out := make([]Locator, 0, dayCount)
		for d := 1; d <= dayCount; d++ {
			out = append(out, Locator{Day: d})
		}
		return out
	case EditSwapDays:
		return []Locator{{Day: e.Day}, {Day: e.OtherDay}}
	case EditAddDay:
		return []Locator{{Day: dayCount + 1}}
	case EditMoveBlock:
		return []Locator{{Day: e.Day, Block: e.Block}, {Day: e.Day, Block: e.ToBlock}}
	case EditSwapActivity, EditAddActivity, EditRemoveActivity, EditRegenerateBlock:
		return []Locator{{Day: e.Day, Block: e.Block}}
	default: // CHANGE_PACE
		return []Locator{{Day: e.Day}}
	}
}

// Validate checks that the intent carries the fields its operation needs.
func (e EditIntent) Validate(dayCount int) error {
	needDay := func() error {
		if e.Day < 1 || e.Day > dayCount {
			return fmt.Errorf("edit %s: day %d out of range 1..%d", e.Op, e.Day, dayCount)
		}
		return nil
	}
	needBlock := func() error {
		if !e.Block.Valid() {
			return fmt.Errorf("edit %s: missing or unknown block %q", e.Op, e.Block)
		}
		return nil
	}

	switch e.Op {
	case EditChangePace:
		if !e.Pace.Valid() {
			return fmt.Errorf("edit %s: unknown pace %q", e.Op, e.Pace)
		}
		return needDay()
	case EditSwapDays:
		if err := needDay(); err != nil {
			return err
		}
		if e.OtherDay < 1 || e.OtherDay > dayCount || e.OtherDay == e.Day {
			return fmt.Errorf("edit %s: second day %d invalid", e.Op, e.OtherDay)
		}
		return nil
	case EditMoveBlock:
		if err := needDay(); err != nil {
			return err
		}
		if err := needBlock(); err != nil {
			return err
		}
		if !e.ToBlock.Valid() || e.ToBlock == e.Block {
			return fmt.Errorf("edit %s: destination block %q invalid", e.Op, e.ToBlock)
		}
		return nil
	case EditSwapActivity, EditAddActivity, EditRegenerateBlock:
		if err := needDay(); err != nil {
			return err
		}
		return needBlock()
	case EditRemoveActivity:
		if err := needDay(); err != nil {
			return err
		}
		if err := needBlock(); err != nil {
			return err
		}
		if e.Activity == "" {
			return fmt.Errorf("edit %s: missing activity reference", e.Op)
		}
		return nil
	case EditAddDay, EditReduceTravel:
		return nil
	default:
		return fmt.Errorf("unknown edit operation %q", e.Op)
	}
}
