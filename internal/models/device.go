package models

import (
	"time"

	"github.com/google/uuid"
)

type DevicePlatform string

const (
	DevicePlatformWeb     DevicePlatform = "web"
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformUnknown DevicePlatform = "unknown"
)

func (p DevicePlatform) Valid() bool {
	switch p {
	case DevicePlatformWeb, DevicePlatformIOS, DevicePlatformAndroid, DevicePlatformUnknown:
		return true
	}
	return false
}

// Device binds a push token to exactly one owner. Tokens are globally unique;
// re-registering a token under another identity reassigns it (last writer
// wins, matching re-issued browser registrations).
type Device struct {
	ID         uuid.UUID      `json:"id"`
	UserID     string         `json:"user_id"`
	Token      string         `json:"token"`
	Platform   DevicePlatform `json:"platform"`
	UserAgent  string         `json:"ua,omitempty"`
	LastSeenAt time.Time      `json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
