package server

import (
	"net/http"
	"strings"

	"lark/internal/auth"
	"lark/internal/database"
	"lark/internal/domain"
	"lark/internal/session"
)

func getChatMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := database.GetRecentChatMessages(50)
	if err != nil {
		writeError(w, "Failed to load messages", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func sendChatMessage(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !csrfManager.Validate(r.Context(), sid, r.FormValue("csrf_token")) {
		rejectCSRF(w, r)
		return
	}

	userID, err := auth.GetUserIDFromRequest(r)
	if err != nil {
		writeError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	text := strings.TrimSpace(r.FormValue("message"))
	if text == "" {
		writeError(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}
	if len(text) > 1000 {
		writeError(w, "Message too long", http.StatusBadRequest)
		return
	}

	message := domain.ChatMessage{
		UserID:  userID,
		Message: text,
	}
	if err := database.CreateChatMessage(&message); err != nil {
		writeError(w, "Failed to send message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}
