package handlers

import (
	"net/http"

	"dobroBack/internal/models"
	"dobroBack/internal/services"
)

type HelpRequestHandler struct {
	Service *services.MatchingService
}

// Browse lists open requests; unknown category or region values are ignored.
func (h *HelpRequestHandler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	requests, err := h.Service.Browse(r.Context(), services.FilterFrom(q.Get("category"), q.Get("region")))
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	if requests == nil {
		requests = []models.HelpRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *HelpRequestHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	userID, ok := getIDParam(r, "user_id")
	if !ok {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	mine, err := h.Service.MyRequests(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, mine)
}

func (h *HelpRequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := getIDParam(r, "id")
	if !ok {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return
	}
	userID, ok := getIDParam(r, "user_id")
	if !ok {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	deleted, err := h.Service.Delete(r.Context(), id, userID)
	if err != nil {
		http.Error(w, "Failed to delete", http.StatusInternalServerError)
		return
	}
	if !deleted {
		http.Error(w, models.ErrNoRecord.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HelpRequestHandler) ResponsesByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := getIDParam(r, "user_id")
	if !ok {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}
	views, err := h.Service.MyResponses(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to fetch", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
