package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/realtime"
)

// Service owns todo rows and their recently-deleted snapshots.
type Service struct {
	pool *pgxpool.Pool
	hub  *realtime.Hub
}

func NewService(pool *pgxpool.Pool, hub *realtime.Hub) *Service {
	return &Service{pool: pool, hub: hub}
}

// CreateParams are the caller-supplied fields of a new todo.
type CreateParams struct {
	Title       string
	Description string
	Category    string
	DueDate     *time.Time
	Priority    string
}

// UpdateParams are the mutable fields of a todo. Nil means unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Completed   *bool
	Category    *string
	DueDate     *time.Time
	Priority    *string
}

const todoColumns = `id, title, description, completed, category, due_date, priority,
		user_id, owner_email, original_owner_email, ai_content, shared_count, created_at, updated_at`

// Create inserts a todo owned by the caller. The original owner email
// is set here and never touched again.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, email string, p CreateParams) (*models.Todo, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	priority := p.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := time.Now()
	todo := &models.Todo{
		ID:                 uuid.New(),
		Title:              title,
		Description:        p.Description,
		Category:           p.Category,
		DueDate:            p.DueDate,
		Priority:           priority,
		UserID:             userID,
		OwnerEmail:         models.NormalizeEmail(email),
		OriginalOwnerEmail: models.NormalizeEmail(email),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	query := `
		INSERT INTO todos (id, title, description, completed, category, due_date, priority,
			user_id, owner_email, original_owner_email, ai_content, shared_count, created_at, updated_at)
		VALUES ($1, $2, $3, false, $4, $5, $6, $7, $8, $9, NULL, 0, $10, $10)
	`
	_, err := s.pool.Exec(ctx, query,
		todo.ID, todo.Title, todo.Description, todo.Category, todo.DueDate, todo.Priority,
		todo.UserID, todo.OwnerEmail, todo.OriginalOwnerEmail, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	s.publish(realtime.TableTodos, realtime.ActionInsert, todo, []string{todo.OwnerEmail})
	return todo, nil
}

// ListForUser returns the caller's own todos plus todos shared with
// them, each shared row annotated with its grant permission.
func (s *Service) ListForUser(ctx context.Context, email string) ([]models.Todo, error) {
	email = models.NormalizeEmail(email)
	query := `
		SELECT ` + todoColumns + `, '' AS permission
		FROM todos WHERE original_owner_email = $1
		UNION ALL
		SELECT t.id, t.title, t.description, t.completed, t.category, t.due_date, t.priority,
			t.user_id, t.owner_email, t.original_owner_email, t.ai_content, t.shared_count,
			t.created_at, t.updated_at, st.permission
		FROM todos t
		JOIN shared_todos st ON st.todo_id = t.id
		WHERE st.shared_with_email = $1
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		todo, err := scanTodoWithPermission(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, *todo)
	}
	return todos, rows.Err()
}

// Get returns a single todo if the caller owns it or holds a share.
func (s *Service) Get(ctx context.Context, id uuid.UUID, actorEmail string) (*models.Todo, error) {
	todo, err := s.getTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.IsOriginalOwner(actorEmail) {
		return todo, nil
	}
	share, err := s.getShare(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}
	if share == nil {
		return nil, ErrNoAccess
	}
	todo.Permission = share.Permission
	return todo, nil
}

// Update edits the canonical todo row. Allowed for the original owner
// or an edit-permission collaborator; view-only collaborators get
// ErrViewOnly. Shared edits always land on the todos row itself so
// every participant sees them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, actorEmail string, p UpdateParams) (*models.Todo, error) {
	todo, share, err := s.loadForModify(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}
	if !CanModify(todo, share, actorEmail) {
		return nil, ErrViewOnly
	}

	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		todo.Title = title
	}
	if p.Description != nil {
		todo.Description = *p.Description
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
	}
	if p.Category != nil {
		todo.Category = *p.Category
	}
	if p.DueDate != nil {
		todo.DueDate = p.DueDate
	}
	if p.Priority != nil {
		todo.Priority = *p.Priority
	}
	todo.UpdatedAt = time.Now()

	query := `
		UPDATE todos
		SET title = $2, description = $3, completed = $4, category = $5,
			due_date = $6, priority = $7, updated_at = $8
		WHERE id = $1
	`
	_, err = s.pool.Exec(ctx, query,
		todo.ID, todo.Title, todo.Description, todo.Completed, todo.Category,
		todo.DueDate, todo.Priority, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.publishToAll(ctx, realtime.TableTodos, realtime.ActionUpdate, todo)
	return todo, nil
}

// Toggle flips the completion flag, with the same permission rule as
// Update.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID, actorEmail string) (*models.Todo, error) {
	todo, share, err := s.loadForModify(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}
	if !CanModify(todo, share, actorEmail) {
		return nil, ErrViewOnly
	}

	todo.Completed = !todo.Completed
	todo.UpdatedAt = time.Now()

	_, err = s.pool.Exec(ctx,
		`UPDATE todos SET completed = $2, updated_at = $3 WHERE id = $1`,
		todo.ID, todo.Completed, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle todo: %w", err)
	}

	s.publishToAll(ctx, realtime.TableTodos, realtime.ActionUpdate, todo)
	return todo, nil
}

// Delete branches on who is asking. The original owner's delete
// removes every share link, writes one recently-deleted snapshot per
// affected user and deletes the row. A collaborator's delete revokes
// only their own share link and snapshots just their access.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actorEmail string) error {
	todo, err := s.getTodo(ctx, id)
	if err != nil {
		return err
	}
	shares, err := s.listShares(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now()
	plan, err := PlanDelete(todo, shares, actorEmail, now)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, snapshot := range plan.Snapshots {
		if err := insertSnapshot(ctx, tx, &snapshot); err != nil {
			return err
		}
	}
	for _, shareID := range plan.RemoveShareIDs {
		if _, err := tx.Exec(ctx, `DELETE FROM shared_todos WHERE id = $1`, shareID); err != nil {
			return fmt.Errorf("failed to remove share link: %w", err)
		}
	}
	if plan.RemoveTodo {
		if _, err := tx.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}
	} else {
		// Collaborator branch keeps the row but the share count drops.
		if _, err := tx.Exec(ctx,
			`UPDATE todos SET shared_count = GREATEST(shared_count - 1, 0), updated_at = $2 WHERE id = $1`,
			id, now,
		); err != nil {
			return fmt.Errorf("failed to update share count: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	emails := affectedEmails(todo, shares)
	if plan.RemoveTodo {
		s.publish(realtime.TableTodos, realtime.ActionDelete, todo, emails)
	} else {
		s.publish(realtime.TableSharedTodos, realtime.ActionDelete, todo, emails)
	}
	return nil
}

// SetAIContent stores the assistant payload on the todo. Writing the
// content mutates the shared row, so the same rule as Update applies:
// original owner or edit-permission collaborator.
func (s *Service) SetAIContent(ctx context.Context, id uuid.UUID, actorEmail string, content *models.AIContent) (*models.Todo, error) {
	todo, share, err := s.loadForModify(ctx, id, actorEmail)
	if err != nil {
		return nil, err
	}
	if !CanModify(todo, share, actorEmail) {
		return nil, ErrViewOnly
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ai content: %w", err)
	}

	todo.AIContent = content
	todo.UpdatedAt = time.Now()

	_, err = s.pool.Exec(ctx,
		`UPDATE todos SET ai_content = $2, updated_at = $3 WHERE id = $1`,
		id, raw, todo.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store ai content: %w", err)
	}

	s.publishToAll(ctx, realtime.TableTodos, realtime.ActionUpdate, todo)
	return todo, nil
}

func (s *Service) loadForModify(ctx context.Context, id uuid.UUID, actorEmail string) (*models.Todo, *models.SharedTodo, error) {
	todo, err := s.getTodo(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	var share *models.SharedTodo
	if !todo.IsOriginalOwner(actorEmail) {
		share, err = s.getShare(ctx, id, actorEmail)
		if err != nil {
			return nil, nil, err
		}
		if share == nil {
			return nil, nil, ErrNoAccess
		}
	}
	return todo, share, nil
}

func (s *Service) getTodo(ctx context.Context, id uuid.UUID) (*models.Todo, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	todo, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return todo, err
}

func (s *Service) getShare(ctx context.Context, todoID uuid.UUID, email string) (*models.SharedTodo, error) {
	query := `
		SELECT id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at
		FROM shared_todos WHERE todo_id = $1 AND shared_with_email = $2
	`
	var share models.SharedTodo
	err := s.pool.QueryRow(ctx, query, todoID, models.NormalizeEmail(email)).Scan(
		&share.ID, &share.TodoID, &share.SharedWithEmail, &share.OwnerEmail,
		&share.OriginalOwnerEmail, &share.Permission, &share.CreatedAt, &share.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	return &share, nil
}

func (s *Service) listShares(ctx context.Context, todoID uuid.UUID) ([]models.SharedTodo, error) {
	query := `
		SELECT id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at
		FROM shared_todos WHERE todo_id = $1 ORDER BY created_at
	`
	rows, err := s.pool.Query(ctx, query, todoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
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

// publishToAll publishes an event to the owner and every collaborator
// of the todo. Share lookup failures only cost event delivery, never
// the write itself.
func (s *Service) publishToAll(ctx context.Context, table, action string, todo *models.Todo) {
	shares, err := s.listShares(ctx, todo.ID)
	if err != nil {
		log.Printf("[todos] could not resolve audience for %s event on %s: %v", action, todo.ID, err)
		shares = nil
	}
	s.publish(table, action, todo, affectedEmails(todo, shares))
}

func (s *Service) publish(table, action string, todo *models.Todo, emails []string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(realtime.Event{
		Table:  table,
		Action: action,
		TodoID: todo.ID,
		Data:   todo,
		Emails: emails,
	})
}

func affectedEmails(todo *models.Todo, shares []models.SharedTodo) []string {
	emails := []string{todo.OriginalOwnerEmail}
	for _, share := range shares {
		emails = append(emails, share.SharedWithEmail)
	}
	return emails
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var todo models.Todo
	var aiRaw []byte
	err := row.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Completed, &todo.Category,
		&todo.DueDate, &todo.Priority, &todo.UserID, &todo.OwnerEmail,
		&todo.OriginalOwnerEmail, &aiRaw, &todo.SharedCount, &todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeAIContent(aiRaw, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func scanTodoWithPermission(row rowScanner) (*models.Todo, error) {
	var todo models.Todo
	var aiRaw []byte
	err := row.Scan(
		&todo.ID, &todo.Title, &todo.Description, &todo.Completed, &todo.Category,
		&todo.DueDate, &todo.Priority, &todo.UserID, &todo.OwnerEmail,
		&todo.OriginalOwnerEmail, &aiRaw, &todo.SharedCount, &todo.CreatedAt, &todo.UpdatedAt,
		&todo.Permission,
	)
	if err != nil {
		return nil, err
	}
	if err := decodeAIContent(aiRaw, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

func decodeAIContent(raw []byte, todo *models.Todo) error {
	if len(raw) == 0 {
		return nil
	}
	var content models.AIContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return fmt.Errorf("failed to decode ai content: %w", err)
	}
	todo.AIContent = &content
	return nil
}
