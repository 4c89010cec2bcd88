package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mj7635827-code/School-forum-sub000/internal/model"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	status := model.StatusPending
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := model.ParseAccountStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		status = parsed
	}
	accounts, err := s.store.ListAccountsByStatus(r.Context(), status, parseLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]accountSummary, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, summarize(account))
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Role   string `json:"role"`
	Cohort string `json:"cohort"`
}

// handleUpdateAccountStatus is the admin moderation entry point: approve a
// pending account, suspend, ban, or reinstate. Bans are terminal and admins
// cannot act on themselves or on other admins' standing.
func (s *Server) handleUpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	admin, _ := accountFromContext(r.Context())
	targetID := chi.URLParam(r, "accountId")

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	status, err := model.ParseAccountStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	if targetID == admin.ID {
		writeError(w, http.StatusBadRequest, "cannot change your own account status")
		return
	}

	target, err := s.store.GetAccountByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "account_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if target.Role == model.RoleAdmin {
		if status == model.StatusSuspended || status == model.StatusBanned {
			writeError(w, http.StatusForbidden, "cannot suspend or ban other administrators")
			return
		}
		if req.Role != "" && req.Role != string(model.RoleAdmin) {
			writeError(w, http.StatusForbidden, "cannot demote other administrators")
			return
		}
	}
	if target.Status == model.StatusBanned {
		writeError(w, http.StatusConflict, "account is banned")
		return
	}

	role := target.Role
	if req.Role != "" {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		role = parsed
	}
	cohort := target.Cohort
	if req.Cohort != "" {
		parsed, err := model.ParseCohort(req.Cohort)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_cohort")
			return
		}
		cohort = parsed
	}

	if err := s.store.UpdateAccountStatus(r.Context(), target.ID, status, role, cohort, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	target.Status = status
	target.Role = role
	target.Cohort = cohort
	writeJSON(w, http.StatusOK, summarize(target))
}
