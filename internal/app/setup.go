package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChunkyMonkey11/AzureHackathonTodo/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create database tables",
	Long:  "Creates the user, todo, sharing, invitation and recently-deleted tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if err := db.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		fmt.Println("Running migrations...")
		migrationSQL := `
			CREATE TABLE IF NOT EXISTS user_profiles (
			    id UUID PRIMARY KEY,
			    email VARCHAR(320) NOT NULL UNIQUE,
			    display_name VARCHAR(120) NOT NULL DEFAULT '',
			    avatar_url TEXT NOT NULL DEFAULT '',
			    password_hash VARCHAR(255) NOT NULL,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE TABLE IF NOT EXISTS todos (
			    id UUID PRIMARY KEY,
			    title TEXT NOT NULL,
			    description TEXT NOT NULL DEFAULT '',
			    completed BOOLEAN NOT NULL DEFAULT FALSE,
			    category TEXT NOT NULL DEFAULT '',
			    due_date TIMESTAMP WITH TIME ZONE,
			    priority VARCHAR(10) NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
			    user_id UUID NOT NULL,
			    owner_email VARCHAR(320) NOT NULL,
			    original_owner_email VARCHAR(320) NOT NULL,
			    ai_content JSONB,
			    shared_count INTEGER NOT NULL DEFAULT 0,
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_todos_original_owner ON todos(original_owner_email);

			CREATE TABLE IF NOT EXISTS shared_todos (
			    id UUID PRIMARY KEY,
			    todo_id UUID NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
			    shared_with_email VARCHAR(320) NOT NULL,
			    owner_email VARCHAR(320) NOT NULL,
			    original_owner_email VARCHAR(320) NOT NULL,
			    permission VARCHAR(4) NOT NULL CHECK (permission IN ('view', 'edit')),
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    UNIQUE (todo_id, shared_with_email)
			);

			CREATE INDEX IF NOT EXISTS idx_shared_todos_recipient ON shared_todos(shared_with_email);

			CREATE TABLE IF NOT EXISTS todo_invitations (
			    id UUID PRIMARY KEY,
			    todo_id UUID NOT NULL,
			    todo_snapshot JSONB NOT NULL,
			    owner_email VARCHAR(320) NOT NULL,
			    recipient_email VARCHAR(320) NOT NULL,
			    permission VARCHAR(4) NOT NULL CHECK (permission IN ('view', 'edit')),
			    status VARCHAR(8) NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
			    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    responded_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_invitations_recipient ON todo_invitations(recipient_email, status);

			CREATE TABLE IF NOT EXISTS recently_deleted (
			    id UUID PRIMARY KEY,
			    todo_id UUID NOT NULL,
			    payload JSONB NOT NULL,
			    user_email VARCHAR(320) NOT NULL,
			    deleted_by VARCHAR(320) NOT NULL,
			    deletion_type VARCHAR(6) NOT NULL CHECK (deletion_type IN ('owner', 'shared')),
			    permission VARCHAR(4) NOT NULL DEFAULT '',
			    deleted_at TIMESTAMP WITH TIME ZONE NOT NULL,
			    expires_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_recently_deleted_user ON recently_deleted(user_email);
			CREATE INDEX IF NOT EXISTS idx_recently_deleted_expiry ON recently_deleted(expires_at);
		`

		if _, err := db.Pool.Exec(ctx, migrationSQL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		fmt.Println("✓ Database setup complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
