package export

import (
	"fmt"
	"time"

	"ai-trip-planner/internal/trip"
)

// Document is the structured payload a PDF renderer consumes: the itinerary
// flattened into titled sections with pre-formatted times and citations.
type Document struct {
	Title       string       `json:"title"`
	City        string       `json:"city"`
	Pace        string       `json:"pace"`
	GeneratedAt time.Time    `json:"generated_at"`
	Days        []DaySection `json:"days"`
	Sources     []string     `json:"sources"`
}

// DaySection is one day of the document.
type DaySection struct {
	Heading string     `json:"heading"`
	Entries []DocEntry `json:"entries"`
}

// DocEntry is one scheduled activity line.
type DocEntry struct {
	TimeRange string `json:"time_range"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Travel    string `json:"travel,omitempty"`
	SourceID  string `json:"source_id"`
	Estimated bool   `json:"estimated,omitempty"`
}

// BuildDocument flattens an itinerary into the PDF payload. Every entry
// keeps its citation so the rendered document stays grounded.
func BuildDocument(it *trip.Itinerary) (Document, error) {
	if it == nil {
		return Document{}, fmt.Errorf("no itinerary to export")
	}

	doc := Document{
		Title:       fmt.Sprintf("%d-day trip to %s", len(it.Days), it.City),
		City:        it.City,
		Pace:        string(it.Pace),
		GeneratedAt: time.Now().UTC(),
	}

	seen := make(map[string]bool)
	for _, day := range it.Days {
		section := DaySection{Heading: fmt.Sprintf("Day %d", day.Day)}
		for _, a := range day.Activities() {
			entry := DocEntry{
				TimeRange: fmt.Sprintf("%s-%s", trip.Clock(a.StartMinute), trip.Clock(a.EndMinute)),
				Name:      a.POI.Name,
				Category:  a.POI.Category,
				SourceID:  a.POI.SourceID,
				Estimated: a.DurationEstimated,
			}
			if a.TravelMinutesFromPrev > 0 {
				entry.Travel = fmt.Sprintf("%d min %s", a.TravelMinutesFromPrev, a.TravelMethod)
			}
			section.Entries = append(section.Entries, entry)
			if !seen[a.POI.SourceID] {
				seen[a.POI.SourceID] = true
				doc.Sources = append(doc.Sources, a.POI.SourceID)
			}
		}
		doc.Days = append(doc.Days, section)
	}

	return doc, nil
}
