package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// TokenStore keeps push tokens per user.
type TokenStore interface {
	Upsert(ctx context.Context, userID int64, token string) error
	Delete(ctx context.Context, token string) error
}

type FCMHandler struct {
	Tokens TokenStore
}

type Token struct {
	UserID int64  `json:"user_id"`
	Token  string `json:"token"`
}

func NewFCMHandler(tokens TokenStore) *FCMHandler {
	return &FCMHandler{Tokens: tokens}
}

func (h *FCMHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	var newToken Token
	if err := json.NewDecoder(r.Body).Decode(&newToken); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if newToken.UserID <= 0 || newToken.Token == "" {
		http.Error(w, "user_id and token are required", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.Upsert(r.Context(), newToken.UserID, newToken.Token); err != nil {
		http.Error(w, "Failed to insert token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *FCMHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	token := getParam(r, "token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}
	if err := h.Tokens.Delete(r.Context(), token); err != nil {
		http.Error(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
