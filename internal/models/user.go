package models

import "time"

// User mirrors the profile attached to an external identity. The ID is the
// opaque subject string issued by the identity provider, never parsed or
// generated locally.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	District    string    `json:"district,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpsertUserParams struct {
	ID          string
	Username    string
	DisplayName string
	Email       string
}

// FriendProfile is the projection returned by friend and participant listings.
type FriendProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	District    string `json:"district,omitempty"`
}
