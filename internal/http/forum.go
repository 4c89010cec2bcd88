package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/access"
	"github.com/mj7635827-code/School-forum-sub000/internal/hidden"
	"github.com/mj7635827-code/School-forum-sub000/internal/model"
	"github.com/mj7635827-code/School-forum-sub000/internal/thread"
)

type postResponse struct {
	ID               string                       `json:"id"`
	ForumType        string                       `json:"forumType"`
	AuthorID         string                       `json:"authorId"`
	Prefix           string                       `json:"prefix,omitempty"`
	Title            string                       `json:"title"`
	Content          string                       `json:"content"`
	HiddenContent    string                       `json:"hiddenContent,omitempty"`
	HasHiddenContent bool                         `json:"hasHiddenContent"`
	HiddenUnlocked   bool                         `json:"hiddenUnlocked"`
	IsPinned         bool                         `json:"isPinned"`
	IsLocked         bool                         `json:"isLocked"`
	ViewCount        int64                        `json:"viewCount"`
	ReplyCount       int64                        `json:"replyCount"`
	Reactions        map[model.ReactionType]int64 `json:"reactions"`
	MyReaction       string                       `json:"myReaction,omitempty"`
	Bookmarked       bool                         `json:"bookmarked"`
	CreatedAt        int64                        `json:"createdAt"`
}

type replyResponse struct {
	ID               string                       `json:"id"`
	PostID           string                       `json:"postId"`
	ParentReplyID    *string                      `json:"parentReplyId,omitempty"`
	AuthorID         string                       `json:"authorId"`
	Content          string                       `json:"content"`
	HiddenContent    string                       `json:"hiddenContent,omitempty"`
	HasHiddenContent bool                         `json:"hasHiddenContent"`
	Depth            int                          `json:"depth"`
	CanReply         bool                         `json:"canReply"`
	Reactions        map[model.ReactionType]int64 `json:"reactions"`
	MyReaction       string                       `json:"myReaction,omitempty"`
	CreatedAt        int64                        `json:"createdAt"`
	Children         []replyResponse              `json:"children"`
}

type createPostRequest struct {
	ForumType string `json:"forumType"`
	Prefix    string `json:"prefix"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

type createReplyRequest struct {
	Content       string  `json:"content"`
	ParentReplyID *string `json:"parentReplyId"`
}

// mapPost assembles the post DTO. Hidden text is attached only when
// includeHidden is set and the caller holds an unlock grant for the post.
func (s *Server) mapPost(r *http.Request, account model.Account, post model.Post, includeHidden bool) (postResponse, error) {
	ctx := r.Context()
	resp := postResponse{
		ID:               post.ID,
		ForumType:        string(post.ForumType),
		AuthorID:         post.AuthorID,
		Prefix:           post.Prefix,
		Title:            post.Title,
		Content:          post.Content,
		HasHiddenContent: post.HasHiddenContent,
		IsPinned:         post.IsPinned,
		IsLocked:         post.IsLocked,
		ViewCount:        post.ViewCount,
		CreatedAt:        post.CreatedAt.Unix(),
	}
	if post.HasHiddenContent {
		visible, hiddenText := hidden.Parse(post.Content)
		resp.Content = visible
		unlocked, err := s.store.HasHiddenAccess(ctx, account.ID, post.ID)
		if err != nil {
			return postResponse{}, err
		}
		resp.HiddenUnlocked = unlocked
		if includeHidden && unlocked {
			resp.HiddenContent = hiddenText
		}
	}

	counts, err := s.postReactionCounts(ctx, post.ID)
	if err != nil {
		return postResponse{}, err
	}
	resp.Reactions = counts

	myReaction, err := s.store.GetPostReaction(ctx, account.ID, post.ID)
	if err != nil {
		return postResponse{}, err
	}
	resp.MyReaction = string(myReaction)

	bookmarked, err := s.store.HasBookmark(ctx, account.ID, post.ID)
	if err != nil {
		return postResponse{}, err
	}
	resp.Bookmarked = bookmarked

	replyCount, err := s.store.CountReplies(ctx, post.ID)
	if err != nil {
		return postResponse{}, err
	}
	resp.ReplyCount = replyCount
	return resp, nil
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	forum, err := model.ParseForumType(chi.URLParam(r, "forumType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_forum_type")
		return
	}
	if granted, reason := access.CanAccessForum(account, forum); !granted {
		writeError(w, http.StatusForbidden, reason)
		return
	}

	posts, err := s.store.ListPostsByForum(r.Context(), forum, parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		mapped, err := s.mapPost(r, account, post, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		resp = append(resp, mapped)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	forum, err := model.ParseForumType(req.ForumType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_forum_type")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if granted, reason := access.CanPostInForum(account, forum); !granted {
		writeError(w, http.StatusForbidden, reason)
		return
	}

	now := time.Now().UTC()
	post := model.Post{
		ID:               uuid.NewString(),
		ForumType:        forum,
		AuthorID:         account.ID,
		Prefix:           strings.TrimSpace(req.Prefix),
		Title:            strings.TrimSpace(req.Title),
		Content:          req.Content,
		HasHiddenContent: hidden.Contains(req.Content),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.CreatePost(r.Context(), post); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Fan-out is deliberately outside any transaction with the insert:
	// a notification failure must never roll back the post.
	s.notifier.PostCreated(r.Context(), account, post)

	resp, err := s.mapPost(r, account, post, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}

	viewCount, err := s.store.RecordPostView(r.Context(), post.ID, account.ID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	post.ViewCount = viewCount

	resp, err := s.mapPost(r, account, post, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePatchPost(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	if !access.CanModerate(account) {
		writeError(w, http.StatusForbidden, access.ReasonModeratorRequired)
		return
	}
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	var req struct {
		IsPinned *bool `json:"isPinned"`
		IsLocked *bool `json:"isLocked"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	isPinned := post.IsPinned
	if req.IsPinned != nil {
		isPinned = *req.IsPinned
	}
	isLocked := post.IsLocked
	if req.IsLocked != nil {
		isLocked = *req.IsLocked
	}
	if err := s.store.SetPostFlags(r.Context(), post.ID, isPinned, isLocked, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadPost(w, r)
	if !ok {
		return
	}
	if post.AuthorID != account.ID && !access.CanModerate(account) {
		writeError(w, http.StatusForbidden, access.ReasonModeratorRequired)
		return
	}
	if err := s.store.DeletePost(r.Context(), post.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "post_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListReplies(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}

	replies, err := s.store.ListRepliesByPost(r.Context(), post.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Replies inherit the hidden-content grant from their parent post.
	unlocked, err := s.store.HasHiddenAccess(r.Context(), account.ID, post.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	forest := thread.Build(replies)
	resp := make([]replyResponse, 0, len(forest))
	for _, node := range forest {
		mapped, err := s.mapReplyNode(r, account, node, unlocked)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		resp = append(resp, mapped)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) mapReplyNode(r *http.Request, account model.Account, node *thread.Node, unlocked bool) (replyResponse, error) {
	reply := node.Reply
	resp := replyResponse{
		ID:               reply.ID,
		PostID:           reply.PostID,
		ParentReplyID:    reply.ParentReplyID,
		AuthorID:         reply.AuthorID,
		Content:          reply.Content,
		HasHiddenContent: reply.HasHiddenContent,
		Depth:            node.Depth,
		CanReply:         node.CanReply(),
		CreatedAt:        reply.CreatedAt.Unix(),
		Children:         []replyResponse{},
	}
	if reply.HasHiddenContent {
		visible, hiddenText := hidden.Parse(reply.Content)
		resp.Content = visible
		if unlocked {
			resp.HiddenContent = hiddenText
		}
	}

	counts, err := s.store.CountReplyReactions(r.Context(), reply.ID)
	if err != nil {
		return replyResponse{}, err
	}
	resp.Reactions = counts
	myReaction, err := s.store.GetReplyReaction(r.Context(), account.ID, reply.ID)
	if err != nil {
		return replyResponse{}, err
	}
	resp.MyReaction = string(myReaction)

	for _, child := range node.Children {
		mapped, err := s.mapReplyNode(r, account, child, unlocked)
		if err != nil {
			return replyResponse{}, err
		}
		resp.Children = append(resp.Children, mapped)
	}
	return resp, nil
}

func (s *Server) handleCreateReply(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	post, ok := s.loadAccessiblePost(w, r, account)
	if !ok {
		return
	}
	if granted, reason := access.CanPostInForum(account, post.ForumType); !granted {
		writeError(w, http.StatusForbidden, reason)
		return
	}
	if post.IsLocked && !access.CanModerate(account) {
		writeError(w, http.StatusForbidden, "Post is locked")
		return
	}

	var req createReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	depth := 0
	if req.ParentReplyID != nil {
		parent, err := s.store.GetReply(r.Context(), *req.ParentReplyID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(w, http.StatusNotFound, "parent_reply_not_found")
				return
			}
			writeError(w, http.StatusInternalServerError, "server_error")
			return
		}
		if parent.PostID != post.ID {
			writeError(w, http.StatusBadRequest, "parent reply belongs to a different post")
			return
		}
		// Depth in the rendered tree is the ancestor count; walk up so the
		// response carries the same canReply flag the tree read would.
		depth = 1
		for ancestor := parent.ParentReplyID; ancestor != nil; {
			prev, err := s.store.GetReply(r.Context(), *ancestor)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
			depth++
			ancestor = prev.ParentReplyID
		}
	}

	reply := model.Reply{
		ID:               uuid.NewString(),
		PostID:           post.ID,
		ParentReplyID:    req.ParentReplyID,
		AuthorID:         account.ID,
		Content:          req.Content,
		HasHiddenContent: hidden.Contains(req.Content),
		CreatedAt:        time.Now().UTC(),
	}
	if err := s.store.CreateReply(r.Context(), reply); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, replyResponse{
		ID:               reply.ID,
		PostID:           reply.PostID,
		ParentReplyID:    reply.ParentReplyID,
		AuthorID:         reply.AuthorID,
		Content:          reply.Content,
		HasHiddenContent: reply.HasHiddenContent,
		Depth:            depth,
		CanReply:         depth < thread.MaxDisplayDepth,
		Reactions:        zeroCounts(),
		CreatedAt:        reply.CreatedAt.Unix(),
		Children:         []replyResponse{},
	})
}

// loadPost fetches the post named in the route, writing a 404 on absence.
func (s *Server) loadPost(w http.ResponseWriter, r *http.Request) (model.Post, bool) {
	post, err := s.store.GetPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "post_not_found")
			return model.Post{}, false
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return model.Post{}, false
	}
	return post, true
}

// loadAccessiblePost additionally enforces the forum access rule for the
// post's forum, writing the clause-specific 403 on denial.
func (s *Server) loadAccessiblePost(w http.ResponseWriter, r *http.Request, account model.Account) (model.Post, bool) {
	post, ok := s.loadPost(w, r)
	if !ok {
		return model.Post{}, false
	}
	if granted, reason := access.CanAccessForum(account, post.ForumType); !granted {
		writeError(w, http.StatusForbidden, reason)
		return model.Post{}, false
	}
	return post, true
}

func zeroCounts() map[model.ReactionType]int64 {
	counts := make(map[model.ReactionType]int64, 6)
	for _, reaction := range model.ReactionTypes() {
		counts[reaction] = 0
	}
	return counts
}
