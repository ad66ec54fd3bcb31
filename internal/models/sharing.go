package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Share permissions. A share link always carries exactly one of these.
const (
	PermissionView = "view"
	PermissionEdit = "edit"
)

// Invitation statuses. pending is the only non-terminal state.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// ValidPermission reports whether p is a recognised share permission.
func ValidPermission(p string) bool {
	return p == PermissionView || p == PermissionEdit
}

// SharedTodo is an active sharing grant. Deleting the row revokes the
// recipient's access.
type SharedTodo struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	TodoID             uuid.UUID `db:"todo_id" json:"todoId"`
	SharedWithEmail    string    `db:"shared_with_email" json:"sharedWithEmail"`
	OwnerEmail         string    `db:"owner_email" json:"ownerEmail"`
	OriginalOwnerEmail string    `db:"original_owner_email" json:"originalOwnerEmail"`
	Permission         string    `db:"permission" json:"permission"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// Invitation is a pending share request. It carries a snapshot of the
// todo at invite time so the recipient can preview it without read
// access to the live row. Once accepted or rejected it is terminal.
type Invitation struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	TodoID         uuid.UUID  `db:"todo_id" json:"todoId"`
	TodoSnapshot   Todo       `db:"todo_snapshot" json:"todoSnapshot"`
	OwnerEmail     string     `db:"owner_email" json:"ownerEmail"`
	RecipientEmail string     `db:"recipient_email" json:"recipientEmail"`
	Permission     string     `db:"permission" json:"permission"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	RespondedAt    *time.Time `db:"responded_at" json:"respondedAt,omitempty"`
}

func equalEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// EqualEmail is the canonical email comparison used by every
// access-control check in the service.
func EqualEmail(a, b string) bool { return equalEmail(a, b) }

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
