package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the schema. Unique constraints back every idempotent
// counter: reactions upsert on their key, bookmarks, views, hidden-content
// grants and follows insert-ignore on theirs.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			role TEXT NOT NULL DEFAULT 'student',
			cohort TEXT NOT NULL,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verify_token TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_token_sessions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES accounts(id),
			token_hash TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			forum_type TEXT NOT NULL,
			author_id UUID NOT NULL REFERENCES accounts(id),
			prefix TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			has_hidden_content BOOLEAN NOT NULL DEFAULT FALSE,
			is_pinned BOOLEAN NOT NULL DEFAULT FALSE,
			is_locked BOOLEAN NOT NULL DEFAULT FALSE,
			view_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS replies (
			id UUID PRIMARY KEY,
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			parent_reply_id UUID REFERENCES replies(id),
			author_id UUID NOT NULL REFERENCES accounts(id),
			content TEXT NOT NULL,
			has_hidden_content BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS post_reactions (
			user_id UUID NOT NULL REFERENCES accounts(id),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			reaction_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, post_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reply_reactions (
			user_id UUID NOT NULL REFERENCES accounts(id),
			reply_id UUID NOT NULL REFERENCES replies(id) ON DELETE CASCADE,
			reaction_type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, reply_id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookmarks (
			user_id UUID NOT NULL REFERENCES accounts(id),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, post_id)
		)`,
		`CREATE TABLE IF NOT EXISTS post_views (
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES accounts(id),
			viewed_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (post_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS hidden_content_access (
			user_id UUID NOT NULL REFERENCES accounts(id),
			post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			granted_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, post_id)
		)`,
		`CREATE TABLE IF NOT EXISTS follows (
			follower_id UUID NOT NULL REFERENCES accounts(id),
			followed_id UUID NOT NULL REFERENCES accounts(id),
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (follower_id, followed_id)
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES accounts(id),
			notification_type TEXT NOT NULL,
			message TEXT NOT NULL,
			related_id TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id UUID PRIMARY KEY,
			sender_id UUID NOT NULL REFERENCES accounts(id),
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_forum_created ON posts (forum_type, is_pinned DESC, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_post ON replies (post_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
