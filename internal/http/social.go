package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

type chatMessageResponse struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	targetID := chi.URLParam(r, "userId")
	if targetID == account.ID {
		writeError(w, http.StatusBadRequest, "cannot follow yourself")
		return
	}
	if _, err := s.store.GetAccountByID(r.Context(), targetID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "account_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	inserted, err := s.store.CreateFollow(r.Context(), account.ID, targetID, time.Now().UTC())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if !inserted {
		writeError(w, http.StatusConflict, "already following")
		return
	}
	s.notifier.Followed(r.Context(), account, targetID)
	writeJSON(w, http.StatusCreated, map[string]bool{"following": true})
}

func (s *Server) handleUnfollow(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	if err := s.store.DeleteFollow(r.Context(), account.ID, chi.URLParam(r, "userId")); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"following": false})
}

func (s *Server) handleListFollowing(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	accounts, err := s.store.ListFollowing(r.Context(), account.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]accountSummary, 0, len(accounts))
	for _, followed := range accounts {
		resp = append(resp, summarize(followed))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListChatMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.store.ListChatMessages(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]chatMessageResponse, 0, len(messages))
	for _, message := range messages {
		resp = append(resp, chatMessageResponse{
			ID:        message.ID,
			SenderID:  message.SenderID,
			Content:   message.Content,
			CreatedAt: message.CreatedAt.Unix(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateChatMessage(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	message := model.ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  account.ID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateChatMessage(r.Context(), message); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	s.notifier.MentionScan(r.Context(), account, message.ID, message.Content)
	writeJSON(w, http.StatusCreated, chatMessageResponse{
		ID:        message.ID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt.Unix(),
	})
}
