package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

type notificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	RelatedID string `json:"relatedId"`
	IsRead    bool   `json:"isRead"`
	CreatedAt int64  `json:"createdAt"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	notifications, err := s.store.ListNotificationsByUser(r.Context(), account.ID, parseLimit(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]notificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		resp = append(resp, mapNotification(notification))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	id := chi.URLParam(r, "notificationId")
	if err := s.store.MarkNotificationRead(r.Context(), id, account.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	account, _ := accountFromContext(r.Context())
	if err := s.store.MarkAllNotificationsRead(r.Context(), account.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapNotification(notification model.Notification) notificationResponse {
	return notificationResponse{
		ID:        notification.ID,
		Type:      string(notification.Type),
		Message:   notification.Message,
		RelatedID: notification.RelatedID,
		IsRead:    notification.IsRead,
		CreatedAt: notification.CreatedAt.Unix(),
	}
}
