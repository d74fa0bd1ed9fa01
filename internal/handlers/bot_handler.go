package handlers

import (
	"encoding/json"
	"net/http"

	"dobroBack/internal/bot"
)

type BotHandler struct {
	Bot *bot.Bot
}

type botResponse struct {
	Replies []bot.Reply `json:"replies"`
}

// HandleUpdate accepts one messenger event and answers with the replies to render.
func (h *BotHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var u bot.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}
	if u.UserID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	replies := h.Bot.Handle(r.Context(), u)
	if replies == nil {
		replies = []bot.Reply{}
	}
	writeJSON(w, http.StatusOK, botResponse{Replies: replies})
}
