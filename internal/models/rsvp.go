package models

import (
	"time"

	"github.com/google/uuid"
)

// RSVPStatus is the state of a join request. Transitions only leave
// Pending; Approved and Rejected are terminal.
type RSVPStatus string

const (
	RSVPStatusPending  RSVPStatus = "pending"
	RSVPStatusApproved RSVPStatus = "approved"
	RSVPStatusRejected RSVPStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPStatusPending, RSVPStatusApproved, RSVPStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transition.
func (s RSVPStatus) Terminal() bool {
	return s == RSVPStatusApproved || s == RSVPStatusRejected
}

// RSVPRequest is one user's request to join a gated event.
// RespondedAt and DecidedBy are set exactly when the status is terminal.
type RSVPRequest struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	Status      RSVPStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	DecidedBy   *uuid.UUID `json:"decided_by,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// RSVPRequestWithRequester is an RSVPRequest joined with the requester's
// public profile for host-facing lists.
type RSVPRequestWithRequester struct {
	RSVPRequest
	Requester UserPublic `json:"requester"`
}

// RSVPPage is one page of join requests with pagination totals.
type RSVPPage struct {
	Items      []RSVPRequestWithRequester `json:"items"`
	TotalCount int                        `json:"total_count"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"page_size"`
	TotalPages int                        `json:"total_pages"`
}
