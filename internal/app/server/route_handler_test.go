package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lark/internal/config"
	"lark/internal/database"
	"lark/internal/domain"
	"lark/internal/session"
)

const captchaAnswerField = "captcha_answer"

// setupServerTest wires configuration, an in-memory database and a memory
// session store, mirroring what bootstrap does in production.
func setupServerTest(t *testing.T) *session.MemoryStore {
	t.Helper()

	t.Chdir(t.TempDir())
	if err := os.MkdirAll("data", 0o755); err != nil {
		t.Fatalf("failed to create settings directory: %v", err)
	}

	var cfg config.Config
	cfg.Security.RequestLimit = 100
	cfg.Security.RequestWindowSeconds = 60
	cfg.Security.PostBurstLimit = 50
	cfg.Security.PostBurstWindowSeconds = 30
	cfg.Security.BanDurationSeconds = 3600
	cfg.Security.TrackingRetentionMinutes = 10
	cfg.Security.EventRetentionDays = 30
	cfg.Security.CaptchaTTLSeconds = 300
	cfg.Security.CSRFTTLSeconds = 3600
	config.SetConfig(cfg)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if _, err := database.SetupDB(database.WithExistingDB(db)); err != nil {
		t.Fatalf("failed to set up test database: %v", err)
	}
	t.Cleanup(func() {
		database.DB = nil
	})

	store := session.NewMemoryStore()
	ConfigureSessions(store)
	return store
}

func formRequest(t *testing.T, target string, sid string, form url.Values) *http.Request {
	t.Helper()

	r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: "lark_session", Value: sid})
	return r
}

func seedCaptcha(t *testing.T, store *session.MemoryStore, sid, answer string) {
	t.Helper()
	if err := store.Set(context.Background(), sid, captchaAnswerField, answer, time.Minute); err != nil {
		t.Fatalf("failed to seed captcha answer: %v", err)
	}
}

func sessionCSRFToken(t *testing.T, sid string) string {
	t.Helper()
	token, err := csrfManager.Get(context.Background(), sid)
	if err != nil {
		t.Fatalf("failed to obtain csrf token: %v", err)
	}
	return token
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var payload map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	return payload
}

func TestGetCaptchaImage(t *testing.T) {
	setupServerTest(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/captcha.png", nil)
	r.AddCookie(&http.Cookie{Name: "lark_session", Value: uuid.NewString()})

	getCaptchaImage(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Errorf("captcha response must not be cacheable, got %q", cc)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("response body is not a PNG")
	}
}

func TestGetCSRFToken(t *testing.T) {
	setupServerTest(t)
	sid := uuid.NewString()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	r.AddCookie(&http.Cookie{Name: "lark_session", Value: sid})

	getCSRFToken(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	payload := decodeJSON(t, w)
	if len(payload["csrf_token"]) != 64 {
		t.Fatalf("expected a 64 character token, got %q", payload["csrf_token"])
	}

	// A second fetch within the validity window returns the same token.
	second := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/csrf", nil)
	r2.AddCookie(&http.Cookie{Name: "lark_session", Value: sid})
	getCSRFToken(second, r2)
	if decodeJSON(t, second)["csrf_token"] != payload["csrf_token"] {
		t.Error("repeated fetches should return the session's live token")
	}
}

func TestRegisterUserRejectsMissingCSRF(t *testing.T) {
	setupServerTest(t)
	sid := uuid.NewString()

	w := httptest.NewRecorder()
	registerUser(w, formRequest(t, "/register", sid, url.Values{
		"email":    {"user@example.com"},
		"username": {"someone"},
		"password": {"supersecret"},
	}))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a csrf token, got %d", w.Code)
	}

	_, total, err := database.ListSecurityEvents(database.EventFilter{EventType: domain.EventCSRFFailure})
	if err != nil {
		t.Fatalf("ListSecurityEvents failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected a CSRF_FAILURE audit entry, got %d", total)
	}
}

func TestRegisterUserRejectsWrongCaptcha(t *testing.T) {
	store := setupServerTest(t)
	sid := uuid.NewString()
	seedCaptcha(t, store, sid, "AB1CD")

	w := httptest.NewRecorder()
	registerUser(w, formRequest(t, "/register", sid, url.Values{
		"csrf_token": {sessionCSRFToken(t, sid)},
		"captcha":    {"WRONG"},
		"email":      {"user@example.com"},
		"username":   {"someone"},
		"password":   {"supersecret"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a wrong captcha, got %d", w.Code)
	}

	_, total, err := database.ListSecurityEvents(database.EventFilter{EventType: domain.EventCaptchaFailure})
	if err != nil {
		t.Fatalf("ListSecurityEvents failed: %v", err)
	}
	if total != 1 {
		t.Errorf("expected a CAPTCHA_FAILURE audit entry, got %d", total)
	}
}

func TestRegisterAndLoginFlow(t *testing.T) {
	store := setupServerTest(t)
	sid := uuid.NewString()

	seedCaptcha(t, store, sid, "AB1CD")
	w := httptest.NewRecorder()
	registerUser(w, formRequest(t, "/register", sid, url.Values{
		"csrf_token": {sessionCSRFToken(t, sid)},
		"captcha":    {"ab1cd"},
		"email":      {"first@example.com"},
		"username":   {"first"},
		"password":   {"supersecret"},
	}))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if decodeJSON(t, w)["token"] == "" {
		t.Fatal("registration should return a token")
	}

	user, err := database.GetUserByEmail("first@example.com")
	if err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if !user.IsAdmin() {
		t.Error("the first registered account should be the admin")
	}

	// Wrong password on an admin account is audited.
	seedCaptcha(t, store, sid, "AB1CD")
	w = httptest.NewRecorder()
	loginUser(w, formRequest(t, "/login", sid, url.Values{
		"captcha":  {"AB1CD"},
		"email":    {"first@example.com"},
		"password": {"not-the-password"},
	}))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", w.Code)
	}
	_, failed, err := database.ListSecurityEvents(database.EventFilter{EventType: domain.EventAdminLoginFailed})
	if err != nil {
		t.Fatalf("ListSecurityEvents failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("expected an ADMIN_LOGIN_FAILED audit entry, got %d", failed)
	}

	// Correct credentials log in and are audited.
	seedCaptcha(t, store, sid, "AB1CD")
	w = httptest.NewRecorder()
	loginUser(w, formRequest(t, "/login", sid, url.Values{
		"captcha":  {"AB1CD"},
		"email":    {"first@example.com"},
		"password": {"supersecret"},
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decodeJSON(t, w)["token"] == "" {
		t.Fatal("login should return a token")
	}
	_, logins, err := database.ListSecurityEvents(database.EventFilter{EventType: domain.EventAdminLogin})
	if err != nil {
		t.Fatalf("ListSecurityEvents failed: %v", err)
	}
	if logins != 1 {
		t.Errorf("expected an ADMIN_LOGIN audit entry, got %d", logins)
	}
}

func TestLoginRequiresCaptcha(t *testing.T) {
	setupServerTest(t)
	sid := uuid.NewString()

	w := httptest.NewRecorder()
	loginUser(w, formRequest(t, "/login", sid, url.Values{
		"email":    {"first@example.com"},
		"password": {"supersecret"},
	}))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a captcha, got %d", w.Code)
	}
}

func TestPasswordResetRequestNeverRevealsAccounts(t *testing.T) {
	store := setupServerTest(t)
	sid := uuid.NewString()

	seedCaptcha(t, store, sid, "AB1CD")
	w := httptest.NewRecorder()
	requestPasswordReset(w, formRequest(t, "/forgot-password", sid, url.Values{
		"csrf_token": {sessionCSRFToken(t, sid)},
		"captcha":    {"AB1CD"},
		"email":      {"nobody@example.com"},
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for an unknown account, got %d", w.Code)
	}
	if msg := decodeJSON(t, w)["message"]; !strings.Contains(msg, "If the account exists") {
		t.Errorf("response must not reveal account existence, got %q", msg)
	}
}
