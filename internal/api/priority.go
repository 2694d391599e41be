package api

import (
	"net/http"

	"github.com/cellgrid/packdb/internal/source"
)

type priorityResponse struct {
	UserID        *int64        `json:"user_id"`
	PriorityOrder []source.Kind `json:"priority_order"`
	IsDefault     bool          `json:"is_default"`
}

func (s *Server) handleGetPriority(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, priorityResponse{PriorityOrder: source.DefaultOrder(), IsDefault: true})
		return
	}
	order, err := s.store.GetPriority(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if order == nil {
		writeJSON(w, http.StatusOK, priorityResponse{UserID: &user.ID, PriorityOrder: source.DefaultOrder(), IsDefault: true})
		return
	}
	writeJSON(w, http.StatusOK, priorityResponse{UserID: &user.ID, PriorityOrder: order})
}

// handleSetPriority stores a full permutation of the source kinds; partial
// orders are rejected so resolution never sees an ambiguous rank.
func (s *Server) handleSetPriority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PriorityOrder []source.Kind `json:"priority_order"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := source.ValidateOrder(req.PriorityOrder); err != nil {
		writeError(w, r, err)
		return
	}
	user := userFrom(r.Context())
	if err := s.store.SetPriority(r.Context(), user.ID, req.PriorityOrder); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priorityResponse{UserID: &user.ID, PriorityOrder: req.PriorityOrder})
}
