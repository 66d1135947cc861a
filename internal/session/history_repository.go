package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"ai-trip-planner/internal/trip"
)

// HistoryRepository persists turn history and finished itineraries, so a
// conversation survives beyond the in-memory session TTL.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordTurn appends one history message for a session.
func (r *HistoryRepository) RecordTurn(ctx context.Context, sessionID string, msg Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, text, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, msg.Role, msg.Text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's history, oldest first.
func (r *HistoryRepository) ListTurns(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, text FROM turns WHERE session_id = ? ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Text); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveItinerary stores a finished itinerary for the session.
func (r *HistoryRepository) SaveItinerary(ctx context.Context, sessionID string, it *trip.Itinerary) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to marshal itinerary: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO itineraries (session_id, city, itinerary_data, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, it.City, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save itinerary: %w", err)
	}
	return nil
}

// LatestItinerary returns the most recently saved itinerary for a session,
// or nil when none exists.
func (r *HistoryRepository) LatestItinerary(ctx context.Context, sessionID string) (*trip.Itinerary, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT itinerary_data FROM itineraries WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID,
	)

	var data []byte
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load itinerary: %w", err)
	}

	var it trip.Itinerary
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal itinerary: %w", err)
	}
	return &it, nil
}
