package security

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"lark/internal/session"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestCaptchaIssueRendersPNG(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	image, err := captcha.Issue(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !bytes.HasPrefix(image, pngMagic) {
		t.Fatal("rendered challenge is not a PNG")
	}

	answer, err := store.Get(ctx, "sess-1", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}
	if len(answer) != captchaLength {
		t.Fatalf("expected a %d character challenge, got %q", captchaLength, answer)
	}
	for _, char := range answer {
		if !strings.ContainsRune(captchaAlphabet, char) {
			t.Fatalf("challenge %q contains character outside the alphabet", answer)
		}
	}
}

func TestCaptchaVerifyIsCaseInsensitive(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	if _, err := captcha.Issue(ctx, "sess-2"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	answer, err := store.Get(ctx, "sess-2", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}

	if !captcha.Verify(ctx, "sess-2", strings.ToLower(answer)) {
		t.Fatal("lowercase attempt at the correct answer must verify")
	}
}

func TestCaptchaChallengeIsSingleUse(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	if _, err := captcha.Issue(ctx, "sess-3"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	answer, err := store.Get(ctx, "sess-3", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}

	if !captcha.Verify(ctx, "sess-3", answer) {
		t.Fatal("first verification should succeed")
	}
	if captcha.Verify(ctx, "sess-3", answer) {
		t.Fatal("a consumed challenge must not verify twice")
	}
}

func TestCaptchaWrongAnswerConsumesChallenge(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	if _, err := captcha.Issue(ctx, "sess-4"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	answer, err := store.Get(ctx, "sess-4", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}

	if captcha.Verify(ctx, "sess-4", "WRONG") {
		t.Fatal("wrong attempt must not verify")
	}
	if captcha.Verify(ctx, "sess-4", answer) {
		t.Fatal("a failed attempt must consume the challenge too")
	}
}

func TestCaptchaExpiredChallengeFails(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	if err := store.Set(ctx, "sess-5", captchaField, "AB1CD", time.Nanosecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if captcha.Verify(ctx, "sess-5", "AB1CD") {
		t.Fatal("an expired challenge must not verify")
	}
}

func TestCaptchaReissueReplacesChallenge(t *testing.T) {
	setupSecurityConfig(t, nil)

	store := session.NewMemoryStore()
	captcha := NewCaptcha(store)
	ctx := context.Background()

	if _, err := captcha.Issue(ctx, "sess-6"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	first, err := store.Get(ctx, "sess-6", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}

	if _, err := captcha.Issue(ctx, "sess-6"); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := store.Get(ctx, "sess-6", captchaField)
	if err != nil {
		t.Fatalf("stored answer missing: %v", err)
	}

	if first != second && captcha.Verify(ctx, "sess-6", first) {
		t.Fatal("a superseded challenge must not verify")
	}
}
