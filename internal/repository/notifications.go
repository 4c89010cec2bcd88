package repository

import (
	"context"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

func (s *Store) CreateNotification(ctx context.Context, notification model.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, notification_type, message, related_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, notification.ID, notification.UserID, notification.Type, notification.Message,
		notification.RelatedID, notification.IsRead, notification.CreatedAt)
	return err
}

func (s *Store) ListNotificationsByUser(ctx context.Context, userID string, limit int32) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, notification_type, message, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var notifications []model.Notification
	for rows.Next() {
		var notification model.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Message,
			&notification.RelatedID,
			&notification.IsRead,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead is an idempotent flip scoped to the recipient.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2
	`, id, userID)
	return err
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1
	`, userID)
	return err
}
