package security

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"lark/internal/config"
	"lark/internal/session"
)

const (
	captchaAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	captchaLength   = 5
	captchaField    = "captcha_answer"

	captchaWidth  = 150
	captchaHeight = 50
)

// Captcha issues image challenges and verifies a single attempt per
// challenge. Answers live in the session store, so the instance that renders
// the image need not be the one that checks the reply.
type Captcha struct {
	store session.Store
}

func NewCaptcha(store session.Store) *Captcha {
	return &Captcha{store: store}
}

// Issue generates a fresh challenge for the session, replacing any prior
// unconsumed one, and returns the rendered PNG.
func (c *Captcha) Issue(ctx context.Context, sessionID string) ([]byte, error) {
	answer, err := randomChallenge()
	if err != nil {
		return nil, fmt.Errorf("captcha: generate challenge: %w", err)
	}

	ttl := config.GetConfig().CaptchaTTL()
	if err := c.store.Set(ctx, sessionID, captchaField, answer, ttl); err != nil {
		return nil, fmt.Errorf("captcha: store challenge: %w", err)
	}

	image, err := renderCaptcha(answer)
	if err != nil {
		return nil, fmt.Errorf("captcha: render image: %w", err)
	}

	return image, nil
}

// Verify compares the attempt against the stored answer, case-insensitively.
// The challenge is consumed regardless of the outcome: a wrong guess requires
// a fresh challenge, never a retry against the same image. An expired or
// absent challenge always fails.
func (c *Captcha) Verify(ctx context.Context, sessionID, attempt string) bool {
	answer, err := c.store.Get(ctx, sessionID, captchaField)

	if delErr := c.store.Delete(ctx, sessionID, captchaField); delErr != nil {
		log.Warn("captcha: failed to consume challenge", "error", delErr)
	}

	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Error("captcha: failed to load challenge", "error", err)
		}
		return false
	}

	return strings.EqualFold(strings.TrimSpace(attempt), answer)
}

func randomChallenge() (string, error) {
	var sb strings.Builder
	for i := 0; i < captchaLength; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(captchaAlphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(captchaAlphabet[idx.Int64()])
	}
	return sb.String(), nil
}

// renderCaptcha draws the challenge text over a noisy background: random
// lines and dots plus per-character color, position and rotation jitter.
func renderCaptcha(text string) ([]byte, error) {
	dc := gg.NewContext(captchaWidth, captchaHeight)

	dc.SetRGB(0.96, 0.96, 0.96)
	dc.Clear()

	// Noise lines
	for i := 0; i < 8; i++ {
		dc.SetRGBA(0.6, 0.6, 0.7, 0.5)
		dc.SetLineWidth(1)
		dc.DrawLine(
			float64(randInt(captchaWidth)), float64(randInt(captchaHeight)),
			float64(randInt(captchaWidth)), float64(randInt(captchaHeight)),
		)
		dc.Stroke()
	}

	// Noise dots
	for i := 0; i < 100; i++ {
		dc.SetRGBA(0.5, 0.5, 0.6, 0.6)
		dc.SetPixel(randInt(captchaWidth), randInt(captchaHeight))
	}

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	face := truetype.NewFace(font, &truetype.Options{Size: 26})
	dc.SetFontFace(face)

	for i, char := range text {
		dc.SetRGB(
			float64(randInt(100))/255,
			float64(randInt(100))/255,
			float64(randInt(100))/255,
		)

		angle := (float64(randInt(40)) - 20) / 100
		x := 20 + float64(i)*25
		y := float64(15 + randInt(20))

		dc.RotateAbout(angle, x, y)
		dc.DrawStringAnchored(string(char), x, y, 0.5, 0.5)
		dc.RotateAbout(-angle, x, y)
	}

	buf := new(bytes.Buffer)
	if err := dc.EncodePNG(buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// randInt returns a uniform value in [0, max) from the crypto source. Noise
// placement does not strictly need that strength, but a single source keeps
// the rendering free of seeded state.
func randInt(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
