package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant roles on an event. Host-class roles may approve or reject
// join requests.
const (
	ParticipantRoleHost     = "host"
	ParticipantRoleCohost   = "cohost"
	ParticipantRoleAttendee = "attendee"
)

// Event is a scheduled gathering. When ApprovalRequired is set, joining
// goes through the RSVP admission workflow instead of being immediate.
type Event struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at,omitempty"`
	CreatedBy        uuid.UUID `json:"created_by"`
	ApprovalRequired bool      `json:"approval_required"`
	Capacity         int       `json:"capacity,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// EventParticipant is a role row tying a user to an event. Soft-deleted
// rows carry no privileges.
type EventParticipant struct {
	ID        uuid.UUID  `json:"id"`
	EventID   uuid.UUID  `json:"event_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}
