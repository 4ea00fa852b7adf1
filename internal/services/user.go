package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/HelieAriane/Clanimo/internal/models"
)

type UserService struct {
	db DBConn
}

func NewUserService(db DBConn) *UserService {
	return &UserService{db: db}
}

// Ensure upserts the profile row for an externally-verified identity. Called
// on every authenticated request; the identity provider owns the identity,
// this table only mirrors display data.
func (s *UserService) Ensure(ctx context.Context, params models.UpsertUserParams) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, username, display_name, email)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET
		   username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE users.username END,
		   display_name = CASE WHEN EXCLUDED.display_name <> '' THEN EXCLUDED.display_name ELSE users.display_name END,
		   email = CASE WHEN EXCLUDED.email <> '' THEN EXCLUDED.email ELSE users.email END,
		   updated_at = NOW()
		 RETURNING id, username, display_name, email, avatar_url, district, created_at, updated_at`,
		params.ID, params.Username, params.DisplayName, params.Email,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email, &user.AvatarURL, &user.District, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ensuring user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx,
		`SELECT id, username, display_name, email, avatar_url, district, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.DisplayName, &user.Email, &user.AvatarURL, &user.District, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return user, nil
}

func (s *UserService) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking user existence: %w", err)
	}
	return exists, nil
}

// DisplayName resolves a human-readable name for notification templates,
// preferring the display name, then the username.
func (s *UserService) DisplayName(ctx context.Context, id string) (string, error) {
	var displayName, username string
	err := s.db.QueryRow(ctx,
		"SELECT display_name, username FROM users WHERE id = $1",
		id,
	).Scan(&displayName, &username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving display name: %w", err)
	}
	if displayName != "" {
		return displayName, nil
	}
	return username, nil
}

// Email returns the stored email for the identity; empty when unknown.
func (s *UserService) Email(ctx context.Context, id string) (string, error) {
	var email string
	err := s.db.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", id).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolving email: %w", err)
	}
	return email, nil
}
