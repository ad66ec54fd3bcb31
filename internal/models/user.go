package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the persisted account record, upserted from sign-up
// metadata on first sign-in.
type UserProfile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	AvatarURL    string    `db:"avatar_url" json:"avatarUrl,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
