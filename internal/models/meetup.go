package models

import (
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
	InviteStatusCanceled InviteStatus = "canceled"
)

// Meetup is a planned gathering. The creator is always a participant.
type Meetup struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	District     string     `json:"district,omitempty"`
	LocationText string     `json:"location_text,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	Latitude     *float64   `json:"lat,omitempty"`
	Longitude    *float64   `json:"lng,omitempty"`
	Date         time.Time  `json:"date"`
	CreatedBy    string     `json:"created_by"`
	Participants []string   `json:"participants"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CreateMeetupParams struct {
	Title        string
	Description  string
	District     string
	LocationText string
	ImageURL     string
	Latitude     *float64
	Longitude    *float64
	Date         time.Time
}

type UpdateMeetupParams struct {
	Title        *string
	Description  *string
	District     *string
	LocationText *string
	ImageURL     *string
	Latitude     *float64
	Longitude    *float64
	Date         *time.Time
}

type MeetupListFilter struct {
	District    string
	DateFrom    *time.Time
	DateTo      *time.Time
	CreatedBy   string
	Participant string
}

// MeetupInvite is stored as its own row with a back-reference to the owning
// meetup, so "my invites across meetups" reads stay proportional to matching
// rows instead of scanning every meetup document.
type MeetupInvite struct {
	ID         uuid.UUID    `json:"id"`
	MeetupID   uuid.UUID    `json:"meetup_id"`
	FromUserID string       `json:"from_user_id"`
	ToUserID   string       `json:"to_user_id"`
	Status     InviteStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// MeetupInviteSummary decorates an invite with meetup context for inbox views.
type MeetupInviteSummary struct {
	MeetupInvite
	MeetupTitle string    `json:"meetup_title"`
	MeetupDate  time.Time `json:"meetup_date"`
}

// InviteCounts aggregates pending invites from the caller's point of view.
type InviteCounts struct {
	Incoming int `json:"meetup_incoming"`
	Outgoing int `json:"meetup_outgoing"`
	Sent     int `json:"meetup_sent"`
	Total    int `json:"total"`
}
