package server

import (
	"net/http"
	"strings"

	"lark/internal/auth"
	"lark/internal/database"
	"lark/internal/domain"
	"lark/internal/security"
	"lark/internal/session"
)

func submitContact(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !captchaEngine.Verify(r.Context(), sid, r.FormValue("captcha")) {
		rejectCaptcha(w, r)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	subject := strings.TrimSpace(r.FormValue("subject"))
	message := strings.TrimSpace(r.FormValue("message"))

	if name == "" || message == "" {
		writeError(w, "Name and message are required", http.StatusBadRequest)
		return
	}
	if !auth.IsValidEmail(email) {
		writeError(w, "Invalid email format", http.StatusBadRequest)
		return
	}

	contact := domain.ContactMessage{
		Name:    name,
		Email:   email,
		Subject: subject,
		Message: message,
		IP:      security.ClientIP(r),
	}
	if err := database.CreateContactMessage(&contact); err != nil {
		writeError(w, "Failed to store message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Thank you for your message."})
}
