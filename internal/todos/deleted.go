package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/models"
	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/realtime"
)

// PurgeInterval is how often expired recently-deleted records are
// swept in the serve loop.
const PurgeInterval = 1 * time.Hour

// ListDeleted returns the caller's unexpired recently-deleted records,
// newest deletion first.
func (s *Service) ListDeleted(ctx context.Context, email string) ([]models.RecentlyDeleted, error) {
	query := `
		SELECT id, todo_id, payload, user_email, deleted_by, deletion_type, permission, deleted_at, expires_at
		FROM recently_deleted
		WHERE user_email = $1 AND expires_at > $2
		ORDER BY deleted_at DESC
	`
	rows, err := s.pool.Query(ctx, query, models.NormalizeEmail(email), time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list deleted records: %w", err)
	}
	defer rows.Close()

	var records []models.RecentlyDeleted
	for rows.Next() {
		rec, err := scanDeleted(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Restore brings back what a recently-deleted record snapshotted: an
// owner deletion becomes a fresh todo row with a new id and a reset
// share count; a shared deletion re-creates the share link, provided
// the underlying todo still exists. The record is removed either way.
func (s *Service) Restore(ctx context.Context, recordID uuid.UUID, userID uuid.UUID, actorEmail string) (*models.Todo, error) {
	rec, err := s.getDeleted(ctx, recordID, actorEmail)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	plan, err := PlanRestore(rec, userID, now)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin restore: %w", err)
	}
	defer tx.Rollback(ctx)

	var restored *models.Todo
	switch {
	case plan.Todo != nil:
		restored = plan.Todo
		var aiRaw []byte
		if restored.AIContent != nil {
			if aiRaw, err = json.Marshal(restored.AIContent); err != nil {
				return nil, fmt.Errorf("failed to encode ai content: %w", err)
			}
		}
		query := `
			INSERT INTO todos (id, title, description, completed, category, due_date, priority,
				user_id, owner_email, original_owner_email, ai_content, shared_count, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, $12, $12)
		`
		if _, err := tx.Exec(ctx, query,
			restored.ID, restored.Title, restored.Description, restored.Completed,
			restored.Category, restored.DueDate, restored.Priority, restored.UserID,
			restored.OwnerEmail, restored.OriginalOwnerEmail, aiRaw, now,
		); err != nil {
			return nil, fmt.Errorf("failed to restore todo: %w", err)
		}

	case plan.Share != nil:
		// The share can only come back if the owner has not since
		// deleted the todo itself.
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM todos WHERE id = $1)`, rec.TodoID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check todo: %w", err)
		}
		if !exists {
			return nil, ErrTodoGone
		}

		share := plan.Share
		query := `
			INSERT INTO shared_todos (id, todo_id, shared_with_email, owner_email, original_owner_email, permission, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			ON CONFLICT (todo_id, shared_with_email) DO UPDATE SET permission = EXCLUDED.permission, updated_at = EXCLUDED.updated_at
		`
		if _, err := tx.Exec(ctx, query,
			share.ID, share.TodoID, share.SharedWithEmail, share.OwnerEmail,
			share.OriginalOwnerEmail, share.Permission, now,
		); err != nil {
			return nil, fmt.Errorf("failed to restore share link: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE todos SET shared_count = shared_count + 1, updated_at = $2 WHERE id = $1`,
			rec.TodoID, now,
		); err != nil {
			return nil, fmt.Errorf("failed to update share count: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recently_deleted WHERE id = $1`, recordID); err != nil {
		return nil, fmt.Errorf("failed to remove deleted record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit restore: %w", err)
	}

	if restored != nil {
		s.publish(realtime.TableTodos, realtime.ActionInsert, restored, []string{restored.OriginalOwnerEmail})
		return restored, nil
	}

	todo, err := s.getTodo(ctx, rec.TodoID)
	if err != nil {
		// The share was restored; losing the event is acceptable.
		log.Printf("[todos] restored share on %s but could not load todo: %v", rec.TodoID, err)
		return nil, nil
	}
	s.publishToAll(ctx, realtime.TableSharedTodos, realtime.ActionInsert, todo)
	return todo, nil
}

// PermanentDelete removes a recently-deleted record with no other
// effect.
func (s *Service) PermanentDelete(ctx context.Context, recordID uuid.UUID, actorEmail string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM recently_deleted WHERE id = $1 AND user_email = $2`,
		recordID, models.NormalizeEmail(actorEmail),
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDeleted
	}
	return nil
}

// PurgeExpired removes all records past their retention window and
// returns how many were swept.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM recently_deleted WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired records: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunPurgeLoop sweeps expired records on a ticker until ctx is
// cancelled.
func (s *Service) RunPurgeLoop(ctx context.Context) {
	ticker := time.NewTicker(PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeExpired(ctx)
			if err != nil {
				log.Printf("[todos] purge error: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("[todos] purged %d expired deleted records", n)
			}
		}
	}
}

func (s *Service) getDeleted(ctx context.Context, recordID uuid.UUID, actorEmail string) (*models.RecentlyDeleted, error) {
	query := `
		SELECT id, todo_id, payload, user_email, deleted_by, deletion_type, permission, deleted_at, expires_at
		FROM recently_deleted WHERE id = $1 AND user_email = $2
	`
	row := s.pool.QueryRow(ctx, query, recordID, models.NormalizeEmail(actorEmail))
	rec, err := scanDeleted(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotDeleted
	}
	return rec, err
}

func insertSnapshot(ctx context.Context, tx pgx.Tx, rec *models.RecentlyDeleted) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	query := `
		INSERT INTO recently_deleted (id, todo_id, payload, user_email, deleted_by, deletion_type, permission, deleted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.Exec(ctx, query,
		rec.ID, rec.TodoID, payload, rec.UserEmail, rec.DeletedBy,
		rec.DeletionType, rec.Permission, rec.DeletedAt, rec.ExpiresAt,
	); err != nil {
		return fmt.Errorf("failed to write deleted snapshot: %w", err)
	}
	return nil
}

func scanDeleted(row rowScanner) (*models.RecentlyDeleted, error) {
	var rec models.RecentlyDeleted
	var payload []byte
	err := row.Scan(
		&rec.ID, &rec.TodoID, &payload, &rec.UserEmail, &rec.DeletedBy,
		&rec.DeletionType, &rec.Permission, &rec.DeletedAt, &rec.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &rec.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
	}
	return &rec, nil
}
