package models

import (
	"time"

	"github.com/google/uuid"
)

// RetentionPeriod is how long a deleted item can still be restored.
const RetentionPeriod = 30 * 24 * time.Hour

// Deletion types recorded on a recently-deleted snapshot.
const (
	// DeletionOwner means the original owner deleted the todo itself.
	DeletionOwner = "owner"
	// DeletionShared means a collaborator removed the todo from their
	// own list, which only revoked their share link.
	DeletionShared = "shared"
)

// RecentlyDeleted is a time-boxed snapshot written on deletion so the
// affected user can restore the todo (or their revoked access) within
// the retention window.
type RecentlyDeleted struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TodoID       uuid.UUID `db:"todo_id" json:"todoId"`
	Payload      Todo      `db:"payload" json:"payload"`
	UserEmail    string    `db:"user_email" json:"userEmail"`
	DeletedBy    string    `db:"deleted_by" json:"deletedBy"`
	DeletionType string    `db:"deletion_type" json:"deletionType"`
	// Permission is only set for shared deletions so restore can
	// re-create the share link with the original grant.
	Permission string    `db:"permission" json:"permission,omitempty"`
	DeletedAt  time.Time `db:"deleted_at" json:"deletedAt"`
	ExpiresAt  time.Time `db:"expires_at" json:"expiresAt"`
}

// Expired reports whether the record is past its retention window.
func (r *RecentlyDeleted) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
