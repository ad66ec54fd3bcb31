package todos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
)

func newTestTodo(owner string) *models.Todo {
	now := time.Now()
	return &models.Todo{
		ID:                 uuid.New(),
		Title:              "Write report",
		Description:        "Quarterly report",
		Priority:           models.PriorityMedium,
		UserID:             uuid.New(),
		OwnerEmail:         owner,
		OriginalOwnerEmail: owner,
		SharedCount:        0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func newTestShare(todo *models.Todo, recipient, permission string) models.SharedTodo {
	now := time.Now()
	return models.SharedTodo{
		ID:                 uuid.New(),
		TodoID:             todo.ID,
		SharedWithEmail:    recipient,
		OwnerEmail:         todo.OwnerEmail,
		OriginalOwnerEmail: todo.OriginalOwnerEmail,
		Permission:         permission,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func TestCanModify(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	editShare := newTestShare(todo, "editor@example.com", models.PermissionEdit)
	viewShare := newTestShare(todo, "viewer@example.com", models.PermissionView)

	tests := []struct {
		name  string
		share *models.SharedTodo
		email string
		want  bool
	}{
		{"original owner", nil, "owner@example.com", true},
		{"original owner case-insensitive", nil, "Owner@Example.COM", true},
		{"edit collaborator", &editShare, "editor@example.com", true},
		{"view collaborator", &viewShare, "viewer@example.com", false},
		{"stranger", nil, "stranger@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanModify(todo, tt.share, tt.email))
		})
	}
}

func TestPlanDelete_OwnerCascades(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	shares := []models.SharedTodo{
		newTestShare(todo, "alice@example.com", models.PermissionEdit),
		newTestShare(todo, "bob@example.com", models.PermissionView),
	}
	now := time.Now()

	plan, err := PlanDelete(todo, shares, "owner@example.com", now)
	require.NoError(t, err)

	assert.True(t, plan.RemoveTodo)
	assert.Len(t, plan.RemoveShareIDs, 2)

	// One snapshot per affected user: owner plus both collaborators.
	require.Len(t, plan.Snapshots, 3)

	byEmail := make(map[string]models.RecentlyDeleted)
	for _, snap := range plan.Snapshots {
		byEmail[snap.UserEmail] = snap
	}

	owner := byEmail["owner@example.com"]
	assert.Equal(t, models.DeletionOwner, owner.DeletionType)
	assert.Empty(t, owner.Permission)

	alice := byEmail["alice@example.com"]
	assert.Equal(t, models.DeletionShared, alice.DeletionType)
	assert.Equal(t, models.PermissionEdit, alice.Permission)

	bob := byEmail["bob@example.com"]
	assert.Equal(t, models.DeletionShared, bob.DeletionType)
	assert.Equal(t, models.PermissionView, bob.Permission)

	for _, snap := range plan.Snapshots {
		assert.Equal(t, now, snap.DeletedAt)
		assert.Equal(t, now.Add(models.RetentionPeriod), snap.ExpiresAt)
		assert.Equal(t, todo.ID, snap.TodoID)
	}
}

func TestPlanDelete_CollaboratorRevokesOwnLink(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	aliceShare := newTestShare(todo, "alice@example.com", models.PermissionEdit)
	bobShare := newTestShare(todo, "bob@example.com", models.PermissionView)
	shares := []models.SharedTodo{aliceShare, bobShare}
	now := time.Now()

	plan, err := PlanDelete(todo, shares, "alice@example.com", now)
	require.NoError(t, err)

	assert.False(t, plan.RemoveTodo)
	require.Len(t, plan.RemoveShareIDs, 1)
	assert.Equal(t, aliceShare.ID, plan.RemoveShareIDs[0])

	require.Len(t, plan.Snapshots, 1)
	assert.Equal(t, "alice@example.com", plan.Snapshots[0].UserEmail)
	assert.Equal(t, models.DeletionShared, plan.Snapshots[0].DeletionType)
	assert.Equal(t, models.PermissionEdit, plan.Snapshots[0].Permission)
}

func TestPlanDelete_StrangerDenied(t *testing.T) {
	todo := newTestTodo("owner@example.com")

	_, err := PlanDelete(todo, nil, "stranger@example.com", time.Now())
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestNewSnapshot_ExpiryIsThirtyDaysAfterDeletion(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	snap := NewSnapshot(todo, "Owner@Example.com", "owner@example.com", models.DeletionOwner, "", now)

	assert.Equal(t, now.AddDate(0, 0, 30), snap.ExpiresAt)
	assert.Equal(t, "owner@example.com", snap.UserEmail)
	assert.Equal(t, todo.Title, snap.Payload.Title)
}

func TestPlanRestore_OwnerDeletion(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	todo.SharedCount = 3
	todo.Completed = true
	now := time.Now()
	rec := NewSnapshot(todo, "owner@example.com", "owner@example.com", models.DeletionOwner, "", now)

	userID := uuid.New()
	plan, err := PlanRestore(&rec, userID, now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, plan.Todo)
	assert.Nil(t, plan.Share)

	restored := plan.Todo
	assert.NotEqual(t, todo.ID, restored.ID, "restored todo must get a new id")
	assert.Zero(t, restored.SharedCount, "share count must reset")
	assert.Equal(t, userID, restored.UserID)
	assert.Equal(t, todo.Title, restored.Title)
	assert.Equal(t, todo.Completed, restored.Completed)
	assert.Equal(t, todo.OriginalOwnerEmail, restored.OriginalOwnerEmail)
	assert.Empty(t, restored.Permission)
}

func TestPlanRestore_SharedDeletion(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	now := time.Now()
	rec := NewSnapshot(todo, "alice@example.com", "alice@example.com", models.DeletionShared, models.PermissionEdit, now)

	plan, err := PlanRestore(&rec, uuid.New(), now.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, plan.Share)
	assert.Nil(t, plan.Todo)

	share := plan.Share
	assert.Equal(t, todo.ID, share.TodoID)
	assert.Equal(t, "alice@example.com", share.SharedWithEmail)
	assert.Equal(t, models.PermissionEdit, share.Permission)
	assert.Equal(t, todo.OriginalOwnerEmail, share.OriginalOwnerEmail)
}

func TestPlanRestore_SharedDeletionDefaultsToView(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	now := time.Now()
	rec := NewSnapshot(todo, "alice@example.com", "owner@example.com", models.DeletionShared, "", now)

	plan, err := PlanRestore(&rec, uuid.New(), now)
	require.NoError(t, err)
	require.NotNil(t, plan.Share)
	assert.Equal(t, models.PermissionView, plan.Share.Permission)
}

func TestPlanRestore_Expired(t *testing.T) {
	todo := newTestTodo("owner@example.com")
	now := time.Now()
	rec := NewSnapshot(todo, "owner@example.com", "owner@example.com", models.DeletionOwner, "", now)

	_, err := PlanRestore(&rec, uuid.New(), now.Add(models.RetentionPeriod).Add(time.Minute))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestPlanRestore_UnknownType(t *testing.T) {
	rec := models.RecentlyDeleted{
		DeletionType: "bogus",
		DeletedAt:    time.Now(),
		ExpiresAt:    time.Now().Add(models.RetentionPeriod),
	}
	_, err := PlanRestore(&rec, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ErrNotDeleted)
}
