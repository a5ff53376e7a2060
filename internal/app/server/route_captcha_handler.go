package server

import (
	"net/http"

	"github.com/charmbracelet/log"

	"lark/internal/session"
)

// getCaptchaImage renders a fresh challenge for the caller's session. Every
// load must produce a new image tied to current session state, so caching is
// disabled outright.
func getCaptchaImage(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	image, err := captchaEngine.Issue(r.Context(), sid)
	if err != nil {
		log.Error("Failed to issue captcha", "error", err)
		writeError(w, "Could not generate captcha", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	_, _ = w.Write(image)
}

// getCSRFToken hands the session's live token to the frontend so it can be
// embedded as the hidden csrf_token field.
func getCSRFToken(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	token, err := csrfManager.Get(r.Context(), sid)
	if err != nil {
		log.Error("Failed to issue csrf token", "error", err)
		writeError(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}
