package todos

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

var (
	ErrNotFound      = errors.New("todo not found")
	ErrNoAccess      = errors.New("no access to todo")
	ErrViewOnly      = errors.New("share permission is view-only")
	ErrTitleRequired = errors.New("title is required")
	ErrExpired       = errors.New("deleted record has expired")
	ErrTodoGone      = errors.New("original todo no longer exists")
	ErrNotDeleted    = errors.New("deleted record not found")
)

// CanModify reports whether actorEmail may edit or toggle the todo.
// The original owner always can; a collaborator needs an
// edit-permission share link.
func CanModify(todo *models.Todo, share *models.SharedTodo, actorEmail string) bool {
	if todo.IsOriginalOwner(actorEmail) {
		return true
	}
	return share != nil && share.Permission == models.PermissionEdit
}

// DeletePlan describes what a delete request should do. The branch
// depends on who is asking: the original owner's delete cascades,
// a collaborator's delete only revokes their own access.
type DeletePlan struct {
	// RemoveTodo is true only for the owner branch.
	RemoveTodo bool
	// RemoveShareIDs are the share links to delete.
	RemoveShareIDs []uuid.UUID
	// Snapshots are the recently-deleted records to write, one per
	// affected user.
	Snapshots []models.RecentlyDeleted
}

// PlanDelete computes the delete branch for actorEmail. shares must be
// every active share link on the todo.
func PlanDelete(todo *models.Todo, shares []models.SharedTodo, actorEmail string, now time.Time) (*DeletePlan, error) {
	if todo.IsOriginalOwner(actorEmail) {
		plan := &DeletePlan{RemoveTodo: true}
		plan.Snapshots = append(plan.Snapshots,
			NewSnapshot(todo, todo.OriginalOwnerEmail, actorEmail, models.DeletionOwner, "", now))
		for _, share := range shares {
			plan.RemoveShareIDs = append(plan.RemoveShareIDs, share.ID)
			plan.Snapshots = append(plan.Snapshots,
				NewSnapshot(todo, share.SharedWithEmail, actorEmail, models.DeletionShared, share.Permission, now))
		}
		return plan, nil
	}

	for _, share := range shares {
		if models.EqualEmail(share.SharedWithEmail, actorEmail) {
			return &DeletePlan{
				RemoveShareIDs: []uuid.UUID{share.ID},
				Snapshots: []models.RecentlyDeleted{
					NewSnapshot(todo, share.SharedWithEmail, actorEmail, models.DeletionShared, share.Permission, now),
				},
			}, nil
		}
	}

	return nil, ErrNoAccess
}

// NewSnapshot builds a recently-deleted record for one affected user.
// The expiry is always deletion time plus the retention period.
func NewSnapshot(todo *models.Todo, userEmail, deletedBy, deletionType, permission string, now time.Time) models.RecentlyDeleted {
	return models.RecentlyDeleted{
		ID:           uuid.New(),
		TodoID:       todo.ID,
		Payload:      *todo,
		UserEmail:    models.NormalizeEmail(userEmail),
		DeletedBy:    models.NormalizeEmail(deletedBy),
		DeletionType: deletionType,
		Permission:   permission,
		DeletedAt:    now,
		ExpiresAt:    now.Add(models.RetentionPeriod),
	}
}

// RestorePlan describes what restoring a recently-deleted record
// re-creates: a fresh todo row for an owner deletion, or a share link
// for a revoked collaborator.
type RestorePlan struct {
	Todo  *models.Todo
	Share *models.SharedTodo
}

// PlanRestore computes the restore action for a record. Owner
// deletions come back as a brand new todo: new id, share count reset,
// deletion and sharing metadata stripped. Shared deletions come back
// as a share link with the original permission.
func PlanRestore(rec *models.RecentlyDeleted, userID uuid.UUID, now time.Time) (*RestorePlan, error) {
	if rec.Expired(now) {
		return nil, ErrExpired
	}

	switch rec.DeletionType {
	case models.DeletionOwner:
		restored := rec.Payload
		restored.ID = uuid.New()
		restored.UserID = userID
		restored.OwnerEmail = rec.UserEmail
		restored.SharedCount = 0
		restored.Permission = ""
		restored.CreatedAt = now
		restored.UpdatedAt = now
		return &RestorePlan{Todo: &restored}, nil
	case models.DeletionShared:
		permission := rec.Permission
		if !models.ValidPermission(permission) {
			permission = models.PermissionView
		}
		return &RestorePlan{Share: &models.SharedTodo{
			ID:                 uuid.New(),
			TodoID:             rec.TodoID,
			SharedWithEmail:    rec.UserEmail,
			OwnerEmail:         rec.Payload.OwnerEmail,
			OriginalOwnerEmail: rec.Payload.OriginalOwnerEmail,
			Permission:         permission,
			CreatedAt:          now,
			UpdatedAt:          now,
		}}, nil
	default:
		return nil, ErrNotDeleted
	}
}
