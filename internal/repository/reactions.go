package repository

import (
	"context"
	"time"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

// SetPostReaction upserts the caller's reaction. The primary key on
// (user_id, post_id) makes concurrent calls last-write-wins without any
// application-level locking.
func (s *Store) SetPostReaction(ctx context.Context, userID, postID string, reaction model.ReactionType, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO post_reactions (user_id, post_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, post_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type
	`, userID, postID, reaction, at)
	return err
}

func (s *Store) ClearPostReaction(ctx context.Context, userID, postID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM post_reactions WHERE user_id = $1 AND post_id = $2
	`, userID, postID)
	return err
}

// GetPostReaction returns the caller's reaction, or "" when none exists.
func (s *Store) GetPostReaction(ctx context.Context, userID, postID string) (model.ReactionType, error) {
	var reaction model.ReactionType
	err := s.pool.QueryRow(ctx, `
		SELECT reaction_type FROM post_reactions WHERE user_id = $1 AND post_id = $2
	`, userID, postID).Scan(&reaction)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return reaction, nil
}

// CountPostReactions aggregates by type. Every one of the six types is
// present in the result, zero counts included, so clients render all six.
func (s *Store) CountPostReactions(ctx context.Context, postID string) (map[model.ReactionType]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT reaction_type, COUNT(*) FROM post_reactions
		WHERE post_id = $1
		GROUP BY reaction_type
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := zeroReactionCounts()
	for rows.Next() {
		var reaction model.ReactionType
		var count int64
		if err := rows.Scan(&reaction, &count); err != nil {
			return nil, err
		}
		counts[reaction] = count
	}
	return counts, rows.Err()
}

func (s *Store) SetReplyReaction(ctx context.Context, userID, replyID string, reaction model.ReactionType, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO reply_reactions (user_id, reply_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, reply_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type
	`, userID, replyID, reaction, at)
	return err
}

func (s *Store) ClearReplyReaction(ctx context.Context, userID, replyID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM reply_reactions WHERE user_id = $1 AND reply_id = $2
	`, userID, replyID)
	return err
}

func (s *Store) GetReplyReaction(ctx context.Context, userID, replyID string) (model.ReactionType, error) {
	var reaction model.ReactionType
	err := s.pool.QueryRow(ctx, `
		SELECT reaction_type FROM reply_reactions WHERE user_id = $1 AND reply_id = $2
	`, userID, replyID).Scan(&reaction)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return reaction, nil
}

func (s *Store) CountReplyReactions(ctx context.Context, replyID string) (map[model.ReactionType]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT reaction_type, COUNT(*) FROM reply_reactions
		WHERE reply_id = $1
		GROUP BY reaction_type
	`, replyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := zeroReactionCounts()
	for rows.Next() {
		var reaction model.ReactionType
		var count int64
		if err := rows.Scan(&reaction, &count); err != nil {
			return nil, err
		}
		counts[reaction] = count
	}
	return counts, rows.Err()
}

func zeroReactionCounts() map[model.ReactionType]int64 {
	counts := make(map[model.ReactionType]int64, 6)
	for _, reaction := range model.ReactionTypes() {
		counts[reaction] = 0
	}
	return counts
}
