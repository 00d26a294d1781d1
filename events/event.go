package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates the registration domain events broadcast to
// subscribers (notification delivery, cache invalidation listeners).
type EventType string

const (
	EventRegistrationConfirmed EventType = "registration_confirmed"
	EventRegistrationCancelled EventType = "registration_cancelled"
	EventWaitlistJoined        EventType = "waitlist_joined"
	EventWaitlistPromoted      EventType = "waitlist_promoted"
)

// RegistrationEvent is the payload published when a registration changes
// state. SlotNumber is set for confirmed/promoted events, WaitlistPosition
// for waitlist ones.
type RegistrationEvent struct {
	ID               string    `json:"id"`
	Type             EventType `json:"type"`
	TournamentID     int       `json:"tournament_id"`
	RegistrationID   int       `json:"registration_id"`
	UserID           int       `json:"user_id"`
	TeamID           *int      `json:"team_id,omitempty"`
	SlotNumber       *int      `json:"slot_number,omitempty"`
	WaitlistPosition *int      `json:"waitlist_position,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewRegistrationEvent stamps the event with a unique id and the current time.
func NewRegistrationEvent(eventType EventType, tournamentID, registrationID, userID int) RegistrationEvent {
	return RegistrationEvent{
		ID:             uuid.NewString(),
		Type:           eventType,
		TournamentID:   tournamentID,
		RegistrationID: registrationID,
		UserID:         userID,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publisher is the outbound event boundary of the registration engine.
// The websocket Hub implements it; tests substitute a recorder.
type Publisher interface {
	PublishRegistrationEvent(event RegistrationEvent)
}
