package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

// RecordPostView inserts the (post, user) pair with ignore-on-duplicate
// semantics and republishes the derived distinct-user count in the same
// transaction. Retried requests never move the count twice.
func (s *Store) RecordPostView(ctx context.Context, postID, userID string, at time.Time) (int64, error) {
	var viewCount int64
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO post_views (post_id, user_id, viewed_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, postID, userID, at); err != nil {
			return err
		}
		return tx.QueryRow(ctx, `
			UPDATE posts
			SET view_count = (SELECT COUNT(*) FROM post_views WHERE post_id = $1)
			WHERE id = $1
			RETURNING view_count
		`, postID).Scan(&viewCount)
	})
	return viewCount, err
}

func (s *Store) AddBookmark(ctx context.Context, userID, postID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookmarks (user_id, post_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`, userID, postID, at)
	return err
}

func (s *Store) RemoveBookmark(ctx context.Context, userID, postID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM bookmarks WHERE user_id = $1 AND post_id = $2
	`, userID, postID)
	return err
}

func (s *Store) HasBookmark(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = $1 AND post_id = $2)
	`, userID, postID).Scan(&exists)
	return exists, err
}

func (s *Store) ListBookmarkedPosts(ctx context.Context, userID string, limit int32) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE id IN (SELECT post_id FROM bookmarks WHERE user_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// GrantHiddenAccess is idempotent; once granted the row is never removed,
// even if the qualifying reaction is later cleared.
func (s *Store) GrantHiddenAccess(ctx context.Context, userID, postID string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hidden_content_access (user_id, post_id, granted_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, post_id) DO NOTHING
	`, userID, postID, at)
	return err
}

func (s *Store) HasHiddenAccess(ctx context.Context, userID, postID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM hidden_content_access WHERE user_id = $1 AND post_id = $2)
	`, userID, postID).Scan(&exists)
	return exists, err
}
