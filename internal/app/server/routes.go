package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"lark/internal/auth"
	"lark/internal/security"
	"lark/internal/session"
)

const distDir = "./static/frontend/browser"

var (
	sessionStore  session.Store
	captchaEngine *security.Captcha
	csrfManager   *security.CSRF
)

// ConfigureSessions wires the session store into the CAPTCHA and CSRF
// components. Must run before OpenRoutes.
func ConfigureSessions(store session.Store) {
	sessionStore = store
	captchaEngine = security.NewCaptcha(store)
	csrfManager = security.NewCSRF(store)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ServeFrontend(port int) error {
	if abs, err := filepath.Abs(distDir); err == nil {
		log.Debugf("Serving static from: %s", abs)
	} else {
		log.Warnf("couldn't resolve %q: %v", distDir, err)
	}

	mux := http.NewServeMux()
	fs := http.FileServer(http.Dir(distDir))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fp := filepath.Join(distDir, filepath.Clean(r.URL.Path))
		if info, err := os.Stat(fp); err == nil && !info.IsDir() {
			fs.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(distDir, "index.html"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Infof("Starting frontend static server on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func OpenRoutes(port int, serveStatic bool) error {
	router := http.NewServeMux()

	// Security surfaces
	router.HandleFunc("GET /captcha.png", getCaptchaImage)
	router.HandleFunc("GET /csrf", getCSRFToken)

	// Auth
	router.HandleFunc("POST /register", registerUser)
	router.HandleFunc("POST /login", loginUser)
	router.HandleFunc("POST /forgot-password", requestPasswordReset)
	router.HandleFunc("POST /reset-password", submitPasswordReset)
	router.Handle("GET /checkLogin", auth.RequireAuth(http.HandlerFunc(checkLogin)))

	// Public content
	router.HandleFunc("GET /posts", getPosts)
	router.HandleFunc("GET /posts/{id}", getPost)
	router.HandleFunc("POST /posts/{id}/view", trackPostView)
	router.Handle("POST /posts/{id}/like", auth.RequireAuth(http.HandlerFunc(likePost)))
	router.HandleFunc("POST /contact", submitContact)

	// Chat
	router.Handle("GET /chat", auth.RequireAuth(http.HandlerFunc(getChatMessages)))
	router.Handle("POST /chat", auth.RequireAuth(http.HandlerFunc(sendChatMessage)))

	// Admin security console
	router.Handle("GET /admin/security/overview", auth.IsAdmin(http.HandlerFunc(getSecurityOverview)))
	router.Handle("GET /admin/security/bans", auth.IsAdmin(http.HandlerFunc(getBans)))
	router.Handle("POST /admin/security/bans", auth.IsAdmin(http.HandlerFunc(createBan)))
	router.Handle("DELETE /admin/security/bans/{ip}", auth.IsAdmin(http.HandlerFunc(deleteBan)))
	router.Handle("GET /admin/security/events", auth.IsAdmin(http.HandlerFunc(getSecurityEvents)))
	router.Handle("GET /global/settings", auth.IsAdmin(http.HandlerFunc(getGlobalSettings)))
	router.Handle("POST /saveSettings", auth.IsAdmin(http.HandlerFunc(saveSettings)))

	// ---------------
	// FRONTEND
	// ---------------
	if serveStatic {
		fs := http.FileServer(http.Dir(distDir))

		router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				http.NotFound(w, r)
				return
			}
			path := filepath.Join(distDir, filepath.Clean(r.URL.Path))
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				fs.ServeHTTP(w, r)
				return
			}
			http.ServeFile(w, r, filepath.Join(distDir, "index.html"))
		})

		log.Debugf("Frontend assets served from %s on the same port", distDir)
	}

	log.Debug("Routes opened")

	// Every request passes the admission gate before any handler runs.
	server := http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: enableCORS(security.Guard(router)),
	}

	log.Infof("Starting lark backend on port :%d", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}
