package security

import (
	"context"
	"encoding/hex"
	"testing"

	"lark/internal/session"
)

func TestCSRFGetIsIdempotent(t *testing.T) {
	setupSecurityConfig(t, nil)

	csrf := NewCSRF(session.NewMemoryStore())
	ctx := context.Background()

	first, err := csrf.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := csrf.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if first != second {
		t.Fatal("repeated Get within the validity window must return the same token")
	}
}

func TestCSRFTokenFormat(t *testing.T) {
	setupSecurityConfig(t, nil)

	csrf := NewCSRF(session.NewMemoryStore())

	token, err := csrf.Get(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(token) != csrfTokenLength*2 {
		t.Fatalf("expected a %d character hex token, got %d", csrfTokenLength*2, len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token %q is not valid hex: %v", token, err)
	}
}

func TestCSRFGenerateRotatesToken(t *testing.T) {
	setupSecurityConfig(t, nil)

	csrf := NewCSRF(session.NewMemoryStore())
	ctx := context.Background()

	first, err := csrf.Get(ctx, "sess-3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	rotated, err := csrf.Generate(ctx, "sess-3")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if first == rotated {
		t.Fatal("Generate must mint a fresh token")
	}
	if csrf.Validate(ctx, "sess-3", first) {
		t.Fatal("the replaced token must no longer validate")
	}
	if !csrf.Validate(ctx, "sess-3", rotated) {
		t.Fatal("the rotated token must validate")
	}
}

func TestCSRFValidate(t *testing.T) {
	setupSecurityConfig(t, nil)

	csrf := NewCSRF(session.NewMemoryStore())
	ctx := context.Background()

	token, err := csrf.Get(ctx, "sess-4")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if !csrf.Validate(ctx, "sess-4", token) {
		t.Error("the live token must validate")
	}
	if csrf.Validate(ctx, "sess-4", "not-the-token") {
		t.Error("a mismatched token must fail")
	}
	if csrf.Validate(ctx, "sess-4", "") {
		t.Error("an empty submission must fail")
	}
	if csrf.Validate(ctx, "other-session", token) {
		t.Error("a token must not validate against another session")
	}
}

func TestCSRFClearForcesRotation(t *testing.T) {
	setupSecurityConfig(t, nil)

	csrf := NewCSRF(session.NewMemoryStore())
	ctx := context.Background()

	token, err := csrf.Get(ctx, "sess-5")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	csrf.Clear(ctx, "sess-5")

	if csrf.Validate(ctx, "sess-5", token) {
		t.Fatal("a cleared token must not validate")
	}

	fresh, err := csrf.Get(ctx, "sess-5")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fresh == token {
		t.Fatal("Get after Clear must mint a new token")
	}
}
