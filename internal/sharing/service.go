// Package sharing implements the invitation and share-link lifecycle:
// an owner invites a recipient, the recipient accepts or rejects
// exactly once, and an accepted invitation becomes an active share
// link the owner can re-permission or revoke.
package sharing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/realtime"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/todos"
)

var (
	ErrNotOwner           = errors.New("only the owner can manage sharing")
	ErrRecipientNotFound  = errors.New("recipient does not exist")
	ErrSelfShare          = errors.New("cannot share a todo with yourself")
	ErrAlreadyShared      = errors.New("todo is already shared with this user")
	ErrAlreadyInvited     = errors.New("a pending invitation already exists")
	ErrInvalidPermission  = errors.New("permission must be view or edit")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrNotRecipient       = errors.New("only the recipient can respond")
	ErrAlreadyResponded   = errors.New("invitation was already responded to")
	ErrShareNotFound      = errors.New("share link not found")
)

// Service owns invitations and share links.
type Service struct {
	pool  *pgxpool.Pool
	todos *todos.Service
	hub   *realtime.Hub
}

func NewService(pool *pgxpool.Pool, todoSvc *todos.Service, hub *realtime.Hub) *Service {
	return &Service{pool: pool, todos: todoSvc, hub: hub}
}

// Invite validates the share request and writes a pending invitation
// carrying a snapshot of the todo at invite time.
func (s *Service) Invite(ctx context.Context, todoID uuid.UUID, actorEmail, recipientEmail, permission string) (*models.Invitation, error) {
	if !models.ValidPermission(permission) {
		return nil, ErrInvalidPermission
	}
	recipient := models.NormalizeEmail(recipientEmail)
	if models.EqualEmail(actorEmail, recipient) {
		return nil, ErrSelfShare
	}

	todo, err := s.todos.Get(ctx, todoID, actorEmail)
	if err != nil {
		return nil, err
	}
	if !todo.IsOriginalOwner(actorEmail) {
		return nil, ErrNotOwner
	}

	var recipientExists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_profiles WHERE email = $1)`, recipient,
	).Scan(&recipientExists); err != nil {
		return nil, fmt.Errorf("failed to check recipient: %w", err)
	}
	if !recipientExists {
		return nil, ErrRecipientNotFound
	}

	var alreadyShared bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM shared_todos WHERE todo_id = $1 AND shared_with_email = $2)`,
		todoID, recipient,
	).Scan(&alreadyShared); err != nil {
		return nil, fmt.Errorf("failed to check existing share: %w", err)
	}
	if alreadyShared {
		return nil, ErrAlreadyShared
	}

	var pendingInvite bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM todo_invitations WHERE todo_id = $1 AND recipient_email = $2 AND status = $3)`,
		todoID, recipient, models.InvitationPending,
	).Scan(&pendingInvite); err != nil {
		return nil, fmt.Errorf("failed to check pending invitation: %w", err)
	}
	if pendingInvite {
		return nil, ErrAlreadyInvited
	}

	snapshot, err := json.Marshal(todo)
	if err != nil {
		return nil, fmt.Errorf("failed to encode todo snapshot: %w", err)
	}

	inv := &models.Invitation{
		ID:             uuid.New(),
		TodoID:         todoID,
		TodoSnapshot:   *todo,
		OwnerEmail:     models.NormalizeEmail(actorEmail),
		RecipientEmail: recipient,
		Permission:     permission,
		Status:         models.InvitationPending,
		CreatedAt:      time.Now(),
	}

	query := `
		INSERT INTO todo_invitations (id, todo_id, todo_snapshot, owner_email, recipient_email, permission, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := s.pool.Exec(ctx, query,
		inv.ID, inv.TodoID, snapshot, inv.OwnerEmail, inv.RecipientEmail,
		inv.Permission, inv.Status, inv.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to insert invitation: %w", err)
	}

	s.hub.Publish(realtime.Event{
		Table:  realtime.TableInvitations,
		Action: realtime.ActionInsert,
		TodoID: todoID,
		Data:   inv,
		Emails: []string{inv.RecipientEmail},
	})
	return inv, nil
}

// PendingInvitations lists the caller's invitations awaiting a
// response.
func (s *Service) PendingInvitations(ctx context.Context, email string) ([]models.Invitation, error) {
	query := `
		SELECT id, todo_id, todo_snapshot, owner_email, recipient_email, permission, status, created_at, responded_at
		FROM todo_invitations
		WHERE recipient_email = $1 AND status = $2
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, models.NormalizeEmail(email), models.InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invs []models.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

// Respond consumes a pending invitation. Accepting creates the share
// link; rejecting only flips the status. Either way the invitation is
// terminal afterwards.
func (s *Service) Respond(ctx context.Context, invitationID uuid.UUID, actorEmail string, accept bool) (*models.Invitation, error) {
	inv, err := s.getInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	status, err := ResolveResponse(inv, actorEmail, accept)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin response: %w", err)
	}
	defer tx.Rollback(ctx)

	// Status guard in the WHERE clause makes the consume-once rule
	// hold even when two responses race.
	tag, err := tx.Exec(ctx,
		`UPDATE todo_invitations SET status = $2, responded_at = $3 WHERE id = $1 AND status = $4`,
		invitationID, status, now, models.InvitationPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrAlreadyResponded
	}

	var share *models.SharedTodo
	if accept {
		share = &models.SharedTodo{
			ID:                 uuid.New(),
			TodoID:             inv.TodoID,
			SharedWithEmail:    inv.RecipientEmail,
			OwnerEmail:         inv.OwnerEmail,
			OriginalOwnerEmail: inv.TodoSnapshot.OriginalOwnerEmail,
			Permission:         inv.Permission,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		query := `
			INSERT INTO shared_todos (id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`
		if _, err := tx.Exec(ctx, query,
			share.ID, share.TodoID, share.SharedWithEmail, share.OwnerEmail,
			share.OriginalOwnerEmail, share.Permission, now,
		); err != nil {
			return nil, fmt.Errorf("failed to create share link: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE todos SET shared_count = shared_count + 1, updated_at = $2 WHERE id = $1`,
			inv.TodoID, now,
		); err != nil {
			return nil, fmt.Errorf("failed to update share count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit response: %w", err)
	}

	inv.Status = status
	inv.RespondedAt = &now

	s.hub.Publish(realtime.Event{
		Table:  realtime.TableInvitations,
		Action: realtime.ActionUpdate,
		TodoID: inv.TodoID,
		Data:   inv,
		Emails: []string{inv.OwnerEmail, inv.RecipientEmail},
	})
	if share != nil {
		s.hub.Publish(realtime.Event{
			Table:  realtime.TableSharedTodos,
			Action: realtime.ActionInsert,
			TodoID: inv.TodoID,
			Data:   share,
			Emails: []string{inv.OwnerEmail, inv.RecipientEmail},
		})
	}
	return inv, nil
}

// Collaborators lists the active share links on a todo. Owner only.
func (s *Service) Collaborators(ctx context.Context, todoID uuid.UUID, actorEmail string) ([]models.SharedTodo, error) {
	todo, err := s.todos.Get(ctx, todoID, actorEmail)
	if err != nil {
		return nil, err
	}
	if !todo.IsOriginalOwner(actorEmail) {
		return nil, ErrNotOwner
	}

	query := `
		SELECT id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at
		FROM shared_todos WHERE todo_id = $1 ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	defer rows.Close()

	var shares []models.SharedTodo
	for rows.Next() {
		var share models.SharedTodo
		if err := rows.Scan(
			&share.ID, &share.TodoID, &share.SharedWithEmail, &share.OwnerEmail,
			&share.OriginalOwnerEmail, &share.Permission, &share.CreatedAt, &share.UpdatedAt,
		); err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}
	return shares, rows.Err()
}

// SetPermission changes a collaborator's grant between view and edit.
// Owner only.
func (s *Service) SetPermission(ctx context.Context, shareID uuid.UUID, actorEmail, permission string) (*models.SharedTodo, error) {
	if !models.ValidPermission(permission) {
		return nil, ErrInvalidPermission
	}
	share, err := s.getShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if !models.EqualEmail(share.OriginalOwnerEmail, actorEmail) {
		return nil, ErrNotOwner
	}

	share.Permission = permission
	share.UpdatedAt = time.Now()

	if _, err := s.pool.Exec(ctx,
		`UPDATE shared_todos SET permission = $2, updated_at = $3 WHERE id = $1`,
		shareID, permission, share.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to update permission: %w", err)
	}

	s.hub.Publish(realtime.Event{
		Table:  realtime.TableSharedTodos,
		Action: realtime.ActionUpdate,
		TodoID: share.TodoID,
		Data:   share,
		Emails: []string{share.OriginalOwnerEmail, share.SharedWithEmail},
	})
	return share, nil
}

// Revoke deletes a share link outright. Owner only. Unlike a
// collaborator's own delete this writes no recently-deleted snapshot;
// the recipient just loses access.
func (s *Service) Revoke(ctx context.Context, shareID uuid.UUID, actorEmail string) error {
	share, err := s.getShare(ctx, shareID)
	if err != nil {
		return err
	}
	if !models.EqualEmail(share.OriginalOwnerEmail, actorEmail) {
		return ErrNotOwner
	}

	now := time.Now()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin revoke: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM shared_todos WHERE id = $1`, shareID); err != nil {
		return fmt.Errorf("failed to delete share link: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE todos SET shared_count = GREATEST(shared_count - 1, 0), updated_at = $2 WHERE id = $1`,
		share.TodoID, now,
	); err != nil {
		return fmt.Errorf("failed to update share count: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit revoke: %w", err)
	}

	s.hub.Publish(realtime.Event{
		Table:  realtime.TableSharedTodos,
		Action: realtime.ActionDelete,
		TodoID: share.TodoID,
		Data:   share,
		Emails: []string{share.OriginalOwnerEmail, share.SharedWithEmail},
	})
	return nil
}

func (s *Service) getInvitation(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `
		SELECT id, todo_id, todo_snapshot, owner_email, recipient_email, permission, status, created_at, responded_at
		FROM todo_invitations WHERE id = $1
	`
	row := s.pool.QueryRow(ctx, query, id)
	inv, err := scanInvitation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvitationNotFound
	}
	return inv, err
}

func (s *Service) getShare(ctx context.Context, id uuid.UUID) (*models.SharedTodo, error) {
	query := `
		SELECT id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at
		FROM shared_todos WHERE id = $1
	`
	var share models.SharedTodo
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&share.ID, &share.TodoID, &share.SharedWithEmail, &share.OwnerEmail,
		&share.OriginalOwnerEmail, &share.Permission, &share.CreatedAt, &share.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &share, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvitation(row rowScanner) (*models.Invitation, error) {
	var inv models.Invitation
	var snapshot []byte
	err := row.Scan(
		&inv.ID, &inv.TodoID, &snapshot, &inv.OwnerEmail, &inv.RecipientEmail,
		&inv.Permission, &inv.Status, &inv.CreatedAt, &inv.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &inv.TodoSnapshot); err != nil {
			return nil, fmt.Errorf("failed to decode todo snapshot: %w", err)
		}
	}
	return &inv, nil
}
