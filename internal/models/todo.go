package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority levels for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is a recognised priority level.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Todo is a task row. OriginalOwnerEmail is set on insert and never
// updated afterwards, independent of later changes to OwnerEmail.
type Todo struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	Title              string     `db:"title" json:"title"`
	Description        string     `db:"description" json:"description"`
	Completed          bool       `db:"completed" json:"completed"`
	Category           string     `db:"category" json:"category"`
	DueDate            *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Priority           string     `db:"priority" json:"priority"`
	UserID             uuid.UUID  `db:"user_id" json:"userId"`
	OwnerEmail         string     `db:"owner_email" json:"ownerEmail"`
	OriginalOwnerEmail string     `db:"original_owner_email" json:"originalOwnerEmail"`
	AIContent          *AIContent `db:"ai_content" json:"aiContent,omitempty"`
	SharedCount        int        `db:"shared_count" json:"sharedCount"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`

	// Permission is populated for todos reached through a share link;
	// empty for todos the caller owns.
	Permission string `db:"-" json:"permission,omitempty"`
}

// IsOriginalOwner reports whether email is the immutable creator of
// the todo. Comparison is case-insensitive like the rest of the
// email-keyed access checks.
func (t *Todo) IsOriginalOwner(email string) bool {
	return equalEmail(t.OriginalOwnerEmail, email)
}
