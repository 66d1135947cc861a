package orchestrator

import (
	"fmt"
	"strings"

	"ai-trip-planner/internal/trip"
)

// FormatItinerary renders an itinerary as conversational plain text, used by
// the CLI and the Telegram bot.
func FormatItinerary(it *trip.Itinerary) string {
	if it == nil {
		return "No itinerary yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is your %d-day %s itinerary for %s:\n", len(it.Days), it.Pace, it.City)
	for _, day := range it.Days {
		fmt.Fprintf(&sb, "\nDay %d\n", day.Day)
		for _, block := range day.Blocks {
			if len(block.Activities) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "  %s\n", capitalize(string(block.Name)))
			for _, a := range block.Activities {
				line := fmt.Sprintf("    %s-%s  %s", trip.Clock(a.StartMinute), trip.Clock(a.EndMinute), a.POI.Name)
				if a.TravelMinutesFromPrev > 0 {
					line += fmt.Sprintf(" (%d min %s)", a.TravelMinutesFromPrev, a.TravelMethod)
				}
				sb.WriteString(line + "\n")
			}
		}
	}
	return sb.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
