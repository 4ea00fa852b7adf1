package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/HelieAriane/Clanimo/internal/models"
)

type DeviceService struct {
	db DBConn
}

func NewDeviceService(db DBConn) *DeviceService {
	return &DeviceService{db: db}
}

// Register upserts by token. A token resubmitted by a different account is
// reassigned to the new owner, since a shared device's push credential belongs
// to whoever signed in last.
func (s *DeviceService) Register(ctx context.Context, userID, token string, platform models.DevicePlatform, userAgent string) (*models.Device, error) {
	if token == "" {
		return nil, errors.New("token is required")
	}
	if !platform.Valid() {
		platform = models.DevicePlatformUnknown
	}

	device := &models.Device{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO device_tokens (user_id, token, platform, user_agent)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (token) DO UPDATE
		 SET user_id = EXCLUDED.user_id,
		     platform = EXCLUDED.platform,
		     user_agent = EXCLUDED.user_agent,
		     last_seen_at = NOW(),
		     updated_at = NOW()
		 RETURNING id, user_id, token, platform, user_agent, last_seen_at, created_at, updated_at`,
		userID, token, platform, userAgent,
	).Scan(&device.ID, &device.UserID, &device.Token, &device.Platform,
		&device.UserAgent, &device.LastSeenAt, &device.CreatedAt, &device.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("registering device: %w", err)
	}
	return device, nil
}

// Unregister removes a token regardless of which account it currently belongs
// to. Deleting an unknown token is a no-op.
func (s *DeviceService) Unregister(ctx context.Context, token string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM device_tokens WHERE token = $1", token); err != nil {
		return fmt.Errorf("unregistering device: %w", err)
	}
	return nil
}

// UnregisterAll removes every token for the user, optionally scoped to one
// platform. Used on sign-out.
func (s *DeviceService) UnregisterAll(ctx context.Context, userID string, platform models.DevicePlatform) (int64, error) {
	var tag CommandTag
	var err error
	if platform == "" {
		tag, err = s.db.Exec(ctx, "DELETE FROM device_tokens WHERE user_id = $1", userID)
	} else {
		tag, err = s.db.Exec(ctx, "DELETE FROM device_tokens WHERE user_id = $1 AND platform = $2", userID, platform)
	}
	if err != nil {
		return 0, fmt.Errorf("unregistering devices: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListTokens returns the user's push tokens, newest activity first.
func (s *DeviceService) ListTokens(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.Query(ctx,
		"SELECT token FROM device_tokens WHERE user_id = $1 ORDER BY last_seen_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (s *DeviceService) ListDevices(ctx context.Context, userID string) ([]models.Device, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, token, platform, user_agent, last_seen_at, created_at, updated_at
		 FROM device_tokens WHERE user_id = $1 ORDER BY last_seen_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := []models.Device{}
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform,
			&d.UserAgent, &d.LastSeenAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// DeleteDevice removes one device row belonging to the user.
func (s *DeviceService) DeleteDevice(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM device_tokens WHERE id = $1 AND user_id = $2", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// DeleteByTokens prunes tokens the push gateway reported as permanently
// invalid.
func (s *DeviceService) DeleteByTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, "DELETE FROM device_tokens WHERE token = ANY($1)", tokens)
	if err != nil {
		return 0, fmt.Errorf("pruning tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
