package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/access"
	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

type reactionRequest struct {
	Type string `json:"type"`
}

type reactionResponse struct {
	Reactions  map[model.ReactionType]int64 `json:"reactions"`
	MyReaction string                       `json:"myReaction,omitempty"`
}

func (s *Server) handleReactToPost(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	reaction, err := model.ParseReactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_reaction")
		return
	}
	if err := s.store.SetPostReaction(r.Context(), account.ID, post.ID, reaction, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.invalidateReactionCache(r.Context(), post.ID)
	s.writePostReactions(w, r, account, post.ID)
}

func (s *Server) handleClearPostReaction(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	if err := s.store.ClearPostReaction(r.Context(), account.ID, post.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.invalidateReactionCache(r.Context(), post.ID)
	s.writePostReactions(w, r, account, post.ID)
}

func (s *Server) writePostReactions(w http.ResponseWriter, r *http.Request, account model.Account, postID string) {
	counts, err := s.postReactionCounts(r.Context(), postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	myReaction, err := s.store.GetPostReaction(r.Context(), account.ID, postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, reactionResponse{
		Reactions:  counts,
		MyReaction: string(myReaction),
	})
}

// handleUnlockHiddenContent grants the caller permanent access to a post's
// hidden spans. The grant requires a current reaction on the post and is
// never revoked afterwards, even if the reaction is cleared.
func (s *Server) handleUnlockHiddenContent(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	if !post.HasHiddenContent {
		writeError(w, http.StatusBadRequest, "post has no hidden content")
		return
	}
	reaction, err := s.store.GetPostReaction(r.Context(), account.ID, post.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if reaction == "" {
		writeError(w, http.StatusForbidden, "must react to unlock")
		return
	}
	if err := s.store.GrantHiddenAccess(r.Context(), account.ID, post.ID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": true})
}

func (s *Server) handleReactToReply(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	reply, ok := s.loadAccessibleReply(w, r, account)
	if !ok {
		return
	}
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	reaction, err := model.ParseReactionType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_reaction")
		return
	}
	if err := s.store.SetReplyReaction(r.Context(), account.ID, reply.ID, reaction, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.writeReplyReactions(w, r, account, reply.ID)
}

func (s *Server) handleClearReplyReaction(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	reply, ok := s.loadAccessibleReply(w, r, account)
	if !ok {
		return
	}
	if err := s.store.ClearReplyReaction(r.Context(), account.ID, reply.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.writeReplyReactions(w, r, account, reply.ID)
}

func (s *Server) writeReplyReactions(w http.ResponseWriter, r *http.Request, account model.Account, replyID string) {
	counts, err := s.store.CountReplyReactions(r.Context(), replyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	myReaction, err := s.store.GetReplyReaction(r.Context(), account.ID, replyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, reactionResponse{
		Reactions:  counts,
		MyReaction: string(myReaction),
	})
}

func (s *Server) loadAccessibleReply(w http.ResponseWriter, r *http.Request, account model.Account) (model.Reply, bool) {
	reply, err := s.store.GetReply(r.Context(), chi.URLParam(r, "replyId"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "reply_not_found")
			return model.Reply{}, false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.Reply{}, false
	}
	post, err := s.store.GetPost(r.Context(), reply.PostID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.Reply{}, false
	}
	if granted, reason := access.CanAccessForum(account, post.ForumType); !granted {
		writeError(w, http.StatusForbidden, reason)
		return model.Reply{}, false
	}
	return reply, true
}

// Bookmarks

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	posts, err := s.store.ListBookmarkedPosts(r.Context(), account.ID, parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		// Bookmarked posts from forums the account can no longer enter are
		// kept in the list but not rendered.
		if granted, _ := access.CanAccessForum(account, post.ForumType); !granted {
			continue
		}
		mapped, err := s.mapPost(r, account, post, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		resp = append(resp, mapped)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	if err := s.store.AddBookmark(r.Context(), account.ID, post.ID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": true})
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	if err := s.store.RemoveBookmark(r.Context(), account.ID, post.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": false})
}

// Reaction aggregate cache

func reactionCacheKey(postID string) string {
	return "forum:reactions:" + postID
}

// postReactionCounts returns the per-type reaction totals for a post,
// serving from Redis when a client is configured and falling back to the
// database on miss. Cache failures degrade to the database silently.
func (s *Server) postReactionCounts(ctx context.Context, postID string) (map[model.ReactionType]int64, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, reactionCacheKey(postID)).Bytes()
		if err == nil {
			var counts map[model.ReactionType]int64
			if json.Unmarshal(cached, &counts) == nil {
				return counts, nil
			}
		}
	}
	counts, err := s.store.CountPostReactions(ctx, postID)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		if payload, err := json.Marshal(counts); err == nil {
			if err := s.redis.Set(ctx, reactionCacheKey(postID), payload, s.cfg.AggregateCacheTTL).Err(); err != nil {
				log.Printf("redis set %s: %v", reactionCacheKey(postID), err)
			}
		}
	}
	return counts, nil
}

func (s *Server) invalidateReactionCache(ctx context.Context, postID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, reactionCacheKey(postID)).Err(); err != nil {
		log.Printf("redis del %s: %v", reactionCacheKey(postID), err)
	}
}
