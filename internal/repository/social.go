package repository

import (
	"context"
	"time"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

// CreateFollow inserts the edge and reports whether it was new. Callers
// translate inserted=false into a duplicate-follow conflict.
func (s *Store) CreateFollow(ctx context.Context, followerID, followedID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, followerID, followedID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followedID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2
	`, followerID, followedID)
	return err
}

func (s *Store) ListFollowerIDs(ctx context.Context, followedID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT follower_id FROM follows WHERE followed_id = $1
	`, followedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListFollowing(ctx context.Context, followerID string) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id IN (SELECT followed_id FROM follows WHERE follower_id = $1)
		ORDER BY first_name ASC
	`, followerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (s *Store) CreateChatMessage(ctx context.Context, message model.ChatMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4)
	`, message.ID, message.SenderID, message.Content, message.CreatedAt)
	return err
}

func (s *Store) ListChatMessages(ctx context.Context, limit int32) ([]model.ChatMessage, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_id, content, created_at FROM chat_messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.ChatMessage
	for rows.Next() {
		var message model.ChatMessage
		if err := rows.Scan(&message.ID, &message.SenderID, &message.Content, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}
