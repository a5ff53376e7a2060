package session

import (
	"net/http"

	"github.com/google/uuid"

	"lark/internal/config"
)

const cookieName = "lark_session"

// SessionID returns the caller's session id, minting one and setting the
// cookie when the request carries none. The cookie itself holds no state;
// it only keys the server-side store.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   config.InProductionMode,
		SameSite: http.SameSiteStrictMode,
	})
	return id
}
