package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"lark/internal/auth"
	"lark/internal/database"
	"lark/internal/domain"
	"lark/internal/security"
	"lark/internal/session"
)

const passwordResetTTL = time.Hour

func checkLogin(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// rejectCSRF terminates a state-changing request whose token failed
// validation. Nothing may have been mutated before this point.
func rejectCSRF(w http.ResponseWriter, r *http.Request) {
	logSecurityEvent(r, domain.EventCSRFFailure, "CSRF token validation failed")
	writeError(w, "Invalid or expired form token. Please refresh the page and try again.", http.StatusForbidden)
}

// rejectCaptcha answers a failed human-verification check. The client is
// expected to load a fresh challenge before retrying.
func rejectCaptcha(w http.ResponseWriter, r *http.Request) {
	logSecurityEvent(r, domain.EventCaptchaFailure, "Captcha verification failed")
	writeError(w, "Invalid captcha", http.StatusBadRequest)
}

func logSecurityEvent(r *http.Request, eventType, description string) {
	if err := database.LogSecurityEvent(security.ClientIP(r), eventType, description, r.UserAgent()); err != nil {
		log.Warn("Failed to log security event", "type", eventType, "error", err)
	}
}

func registerUser(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !csrfManager.Validate(r.Context(), sid, r.FormValue("csrf_token")) {
		rejectCSRF(w, r)
		return
	}
	if !captchaEngine.Verify(r.Context(), sid, r.FormValue("captcha")) {
		rejectCaptcha(w, r)
		return
	}

	email := r.FormValue("email")
	username := r.FormValue("username")
	password := r.FormValue("password")

	if !auth.IsValidEmail(email) {
		writeError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if len(username) < 3 {
		writeError(w, "Username must be at least 3 characters long", http.StatusBadRequest)
		return
	}
	if len(password) < 8 {
		writeError(w, "Password must be at least 8 characters long", http.StatusBadRequest)
		return
	}

	taken, err := database.EmailOrUsernameTaken(email, username)
	if err != nil {
		writeError(w, "Failed to query database", http.StatusInternalServerError)
		return
	}
	if taken {
		writeError(w, "Email or username already in use", http.StatusConflict)
		return
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user := domain.User{
		Email:    email,
		Username: username,
		Password: hashedPassword,
	}
	if err := database.CreateUser(&user); err != nil {
		writeError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Role)
	if err != nil {
		writeError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func loginUser(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !captchaEngine.Verify(r.Context(), sid, r.FormValue("captcha")) {
		rejectCaptcha(w, r)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := database.GetUserByEmail(email)
	if err != nil {
		if !errors.Is(err, database.ErrUserNotFound) {
			writeError(w, "Failed to query database", http.StatusInternalServerError)
			return
		}
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPasswordHash(password, user.Password) {
		if user.IsAdmin() {
			logSecurityEvent(r, domain.EventAdminLoginFailed, "Failed admin login for "+user.Email)
		}
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if user.IsAdmin() {
		logSecurityEvent(r, domain.EventAdminLogin, "Admin login for "+user.Email)
	}

	token, err := auth.GenerateJWT(user.ID, user.Role)
	if err != nil {
		writeError(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !csrfManager.Validate(r.Context(), sid, r.FormValue("csrf_token")) {
		rejectCSRF(w, r)
		return
	}
	if !captchaEngine.Verify(r.Context(), sid, r.FormValue("captcha")) {
		rejectCaptcha(w, r)
		return
	}

	email := r.FormValue("email")

	// The response never reveals whether the account exists.
	user, err := database.GetUserByEmail(email)
	if err == nil {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			writeError(w, "Failed to create reset token", http.StatusInternalServerError)
			return
		}
		token := hex.EncodeToString(raw)
		hash := sha256.Sum256([]byte(token))

		if err := database.CreatePasswordReset(user.ID, hex.EncodeToString(hash[:]), passwordResetTTL); err != nil {
			writeError(w, "Failed to create reset token", http.StatusInternalServerError)
			return
		}

		// Mail delivery is handled outside this backend; the token is logged
		// for operators in the meantime.
		log.Info("Password reset requested", "user", user.ID)
	} else if !errors.Is(err, database.ErrUserNotFound) {
		writeError(w, "Failed to query database", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a reset link has been sent.",
	})
}

func submitPasswordReset(w http.ResponseWriter, r *http.Request) {
	sid := session.SessionID(w, r)

	if !csrfManager.Validate(r.Context(), sid, r.FormValue("csrf_token")) {
		rejectCSRF(w, r)
		return
	}

	token := r.FormValue("token")
	newPassword := r.FormValue("new_password")

	if token == "" {
		writeError(w, "Missing reset token", http.StatusBadRequest)
		return
	}
	if len(newPassword) < 8 {
		writeError(w, "Password must be at least 8 characters long", http.StatusBadRequest)
		return
	}

	hash := sha256.Sum256([]byte(token))
	userID, err := database.ConsumePasswordReset(hex.EncodeToString(hash[:]))
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, "Invalid or expired reset token", http.StatusBadRequest)
			return
		}
		writeError(w, "Failed to query database", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		writeError(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := database.UpdateUserPassword(userID, hashedPassword); err != nil {
		writeError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
