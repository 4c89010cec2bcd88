package repository

import (
	"context"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

const replyColumns = `id, post_id, parent_reply_id, author_id, content, has_hidden_content, created_at`

func scanReply(row interface{ Scan(...any) error }) (model.Reply, error) {
	var reply model.Reply
	err := row.Scan(
		&reply.ID,
		&reply.PostID,
		&reply.ParentReplyID,
		&reply.AuthorID,
		&reply.Content,
		&reply.HasHiddenContent,
		&reply.CreatedAt,
	)
	return reply, err
}

func (s *Store) CreateReply(ctx context.Context, reply model.Reply) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replies (`+replyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, reply.ID, reply.PostID, reply.ParentReplyID, reply.AuthorID, reply.Content,
		reply.HasHiddenContent, reply.CreatedAt)
	return err
}

func (s *Store) GetReply(ctx context.Context, id string) (model.Reply, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+replyColumns+` FROM replies WHERE id = $1`, id)
	return scanReply(row)
}

func (s *Store) ListRepliesByPost(ctx context.Context, postID string) ([]model.Reply, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+replyColumns+` FROM replies
		WHERE post_id = $1
		ORDER BY created_at ASC
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var replies []model.Reply
	for rows.Next() {
		reply, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, reply)
	}
	return replies, rows.Err()
}
