// Package export renders itineraries for the outside world: iCalendar feeds
// and a structured document payload for PDF rendering.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"ai-trip-planner/internal/trip"
)

// ICS renders the itinerary as an iCalendar file. Day 1 falls on startDate;
// activity times are minutes since midnight in the trip's local time.
func ICS(it *trip.Itinerary, startDate time.Time) (string, error) {
	if it == nil {
		return "", fmt.Errorf("no itinerary to export")
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//ai-trip-planner//EN")

	base := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	for _, day := range it.Days {
		dayBase := base.AddDate(0, 0, day.Day-1)
		for _, a := range day.Activities() {
			uid := fmt.Sprintf("%s-day%d-%s", a.POI.SourceID, day.Day, it.City)
			ev := cal.AddEvent(uid)
			ev.SetStartAt(dayBase.Add(time.Duration(a.StartMinute) * time.Minute))
			ev.SetEndAt(dayBase.Add(time.Duration(a.EndMinute) * time.Minute))
			ev.SetSummary(a.POI.Name)
			ev.SetLocation(it.City)
			desc := fmt.Sprintf("%s (%s)", a.POI.Category, a.POI.SourceID)
			if a.TravelMinutesFromPrev > 0 {
				desc += fmt.Sprintf(", %d min %s from previous stop", a.TravelMinutesFromPrev, a.TravelMethod)
			}
			ev.SetDescription(desc)
		}
	}

	return cal.Serialize(), nil
}
