package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailType for RSVP notifications.
const (
	EmailTypeRequestReceived = "rsvp_request_received"
	EmailTypeRequestApproved = "rsvp_request_approved"
	EmailTypeRequestRejected = "rsvp_request_rejected"
	EmailTypeHostNewRequest  = "rsvp_host_new_request"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records notification emails sent for an event.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	EventID        *uuid.UUID `json:"event_id,omitempty"`
	RSVPRequestID  *uuid.UUID `json:"rsvp_request_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
