package services

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/models"
)

// EventServiceProvider defines the interface for the activity trail.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, subjectID *string)
	GetRecentEvents(limit int) ([]models.Event, error)
}

// EventService records system activity (registrations, logins, catalogue and
// review changes) to the events table.
type EventService struct {
	db *sql.DB
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{db: db}
}

// CreateEvent logs a new event. Failures are logged and swallowed; the audit
// trail must never fail the operation it records.
func (s *EventService) CreateEvent(eventType, level, message string, subjectID *string) {
	_, err := s.db.Exec("INSERT INTO events (id, type, level, message, subject_id) VALUES (?, ?, ?, ?, ?)",
		uuid.New().String(), eventType, level, message, subjectID)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// GetRecentEvents retrieves the most recent events.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query(
		"SELECT id, type, level, message, subject_id, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.SubjectID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
