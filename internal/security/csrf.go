package security

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"lark/internal/config"
	"lark/internal/session"
)

const (
	csrfField       = "csrf_token"
	csrfTokenLength = 32
)

// CSRF issues and validates per-session anti-forgery tokens.
type CSRF struct {
	store session.Store
}

func NewCSRF(store session.Store) *CSRF {
	return &CSRF{store: store}
}

// Get returns the session's live token, generating one only when none
// exists. Repeated calls within the validity window return the same value,
// so every form rendered during a session embeds the same token.
func (c *CSRF) Get(ctx context.Context, sessionID string) (string, error) {
	token, err := c.store.Get(ctx, sessionID, csrfField)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return "", fmt.Errorf("csrf: load token: %w", err)
	}

	return c.Generate(ctx, sessionID)
}

// Generate always mints a fresh token, replacing any live one.
func (c *CSRF) Generate(ctx context.Context, sessionID string) (string, error) {
	raw := make([]byte, csrfTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("csrf: generate token: %w", err)
	}

	token := hex.EncodeToString(raw)
	ttl := config.GetConfig().CSRFTTL()
	if err := c.store.Set(ctx, sessionID, csrfField, token, ttl); err != nil {
		return "", fmt.Errorf("csrf: store token: %w", err)
	}

	return token, nil
}

// Validate compares the submitted token against the stored one in constant
// time. A missing, expired or mismatched token fails; failure must be
// answered with 403 before any mutation happens.
func (c *CSRF) Validate(ctx context.Context, sessionID, submitted string) bool {
	if submitted == "" {
		return false
	}

	stored, err := c.store.Get(ctx, sessionID, csrfField)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error("csrf: failed to load token", "error", err)
		}
		return false
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

// Clear removes the session's token, forcing the next Get to rotate.
func (c *CSRF) Clear(ctx context.Context, sessionID string) {
	if err := c.store.Delete(ctx, sessionID, csrfField); err != nil {
		log.Warn("csrf: failed to clear token", "error", err)
	}
}
