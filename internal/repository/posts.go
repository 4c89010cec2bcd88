package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

const postColumns = `id, forum_type, author_id, prefix, title, content, has_hidden_content, is_pinned, is_locked, view_count, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (model.Post, error) {
	var post model.Post
	err := row.Scan(
		&post.ID,
		&post.ForumType,
		&post.AuthorID,
		&post.Prefix,
		&post.Title,
		&post.Content,
		&post.HasHiddenContent,
		&post.IsPinned,
		&post.IsLocked,
		&post.ViewCount,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	return post, err
}

func (s *Store) CreatePost(ctx context.Context, post model.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, post.ID, post.ForumType, post.AuthorID, post.Prefix, post.Title, post.Content,
		post.HasHiddenContent, post.IsPinned, post.IsLocked, post.ViewCount,
		post.CreatedAt, post.UpdatedAt)
	return err
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	return scanPost(row)
}

func (s *Store) ListPostsByForum(ctx context.Context, forum model.ForumType, limit int32) ([]model.Post, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+` FROM posts
		WHERE forum_type = $1
		ORDER BY is_pinned DESC, created_at DESC
		LIMIT $2
	`, forum, limit)
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

func (s *Store) SetPostFlags(ctx context.Context, id string, isPinned, isLocked bool, updatedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET is_pinned = $1, is_locked = $2, updated_at = $3
		WHERE id = $4
	`, isPinned, isLocked, updatedAt, id)
	return err
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) CountReplies(ctx context.Context, postID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM replies WHERE post_id = $1`, postID).Scan(&count)
	return count, err
}
