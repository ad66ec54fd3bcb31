package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("profile not found")
)

// Service wraps sign-up, sign-in and profile lookups.
type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// SignUpParams carries the provider metadata used to seed a profile.
type SignUpParams struct {
	Email       string
	Password    string
	DisplayName string
	AvatarURL   string
}

// SignUp creates a profile row and returns it. The email must not be
// in use yet.
func (s *Service) SignUp(ctx context.Context, p SignUpParams) (*models.UserProfile, error) {
	email := models.NormalizeEmail(p.Email)
	if email == "" || p.Password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.UserProfile{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: strings.TrimSpace(p.DisplayName),
		AvatarURL:   p.AvatarURL,
	}
	now := time.Now()

	// DO NOTHING keeps the existing row intact when two sign-ups race
	// on the same email; the loser sees zero rows affected.
	query := `
		INSERT INTO user_profiles (id, email, display_name, avatar_url, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (email) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query,
		profile.ID, profile.Email, profile.DisplayName, profile.AvatarURL, string(hash), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrEmailTaken
	}
	profile.CreatedAt = now
	profile.UpdatedAt = now

	return profile, nil
}

// SignIn verifies credentials and returns the matching profile.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.UserProfile, error) {
	profile, err := s.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return profile, nil
}

// GetProfileByEmail looks up a profile by normalized email.
func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `
		SELECT id, email, display_name, avatar_url, password_hash, created_at, updated_at
		FROM user_profiles WHERE email = $1
	`
	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, models.NormalizeEmail(email)).Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.AvatarURL, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// GetProfileByID looks up a profile by id.
func (s *Service) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	query := `
		SELECT id, email, display_name, avatar_url, password_hash, created_at, updated_at
		FROM user_profiles WHERE id = $1
	`
	var p models.UserProfile
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.AvatarURL, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
