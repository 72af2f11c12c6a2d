package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// User represents a platform user.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	FullName       string    `json:"full_name"`
	Role           Role      `json:"role"`
	Phone          string    `json:"phone,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Points         int       `json:"points"`
	EventsAttended int       `json:"events_attended"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
// RSVP list rows embed it so hosts can see who is asking to join.
type UserPublic struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	Points         int       `json:"points"`
	EventsAttended int       `json:"events_attended"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Phone:          u.Phone,
		AvatarURL:      u.AvatarURL,
		Points:         u.Points,
		EventsAttended: u.EventsAttended,
		CreatedAt:      u.CreatedAt,
	}
}
