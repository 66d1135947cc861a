package session

import (
	"time"

	"ai-trip-planner/internal/trip"
)

// State is the conversation state machine position for a session.
type State string

const (
	StateAwaitingPreferences State = "AWAITING_PREFERENCES"
	StateClarifying          State = "CLARIFYING"
	StatePlanned             State = "PLANNED"
	StateEditing             State = "EDITING"
	StateExplaining          State = "EXPLAINING"
)

// MaxClarifyingQuestions bounds the clarifying loop for one planning flow.
const MaxClarifyingQuestions = 6

// Message is one turn of conversation history.
type Message struct {
	Role string `json:"role"` // user, assistant
	Text string `json:"text"`
}

// Session is the per-conversation record. Owned exclusively by the Store;
// mutated only through Store.Apply.
type Session struct {
	ID                       string            `json:"id"`
	State                    State             `json:"state"`
	History                  []Message         `json:"history"`
	Preferences              trip.Preferences  `json:"preferences"`
	ClarifyingQuestionsAsked int               `json:"clarifying_questions_asked"`
	Itinerary                *trip.Itinerary   `json:"itinerary,omitempty"`
	EditHistory              []trip.EditIntent `json:"edit_history,omitempty"`
	// Names of POIs already placed in this session, so replanning prefers
	// fresh material.
	UsedPOIs map[string]bool `json:"used_pois,omitempty"`
	// TurnSeq increases once per accepted turn; a slower concurrent turn with
	// a stale sequence is discarded at commit time.
	TurnSeq   int       `json:"turn_seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddMessage appends to the conversation history.
func (s *Session) AddMessage(role, text string) {
	s.History = append(s.History, Message{Role: role, Text: text})
}

// MarkUsed records POIs placed into an itinerary for this session.
func (s *Session) MarkUsed(pois []trip.POI) {
	if s.UsedPOIs == nil {
		s.UsedPOIs = make(map[string]bool)
	}
	for _, p := range pois {
		s.UsedPOIs[p.Name] = true
	}
}

// clone returns a deep copy, so mutators stay pure and retry-safe.
func (s *Session) clone() *Session {
	out := *s
	out.History = append([]Message(nil), s.History...)
	out.Preferences.Interests = append([]string(nil), s.Preferences.Interests...)
	out.EditHistory = append([]trip.EditIntent(nil), s.EditHistory...)
	out.Itinerary = s.Itinerary.Clone()
	if s.UsedPOIs != nil {
		out.UsedPOIs = make(map[string]bool, len(s.UsedPOIs))
		for k, v := range s.UsedPOIs {
			out.UsedPOIs[k] = v
		}
	}
	return &out
}
