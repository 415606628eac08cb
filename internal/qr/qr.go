// Package qr turns provider QR challenges into something a person can
// scan. The provider returns either a scannable token directly or a
// base64-encoded PNG whose pixels encode the token; either way the token
// text is recovered and re-rendered in the terminal, which stays crisp
// where a re-scaled PNG would not.
package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/mdp/qrterminal"
)

// pngBase64Prefix is the base64 encoding of the PNG magic bytes.
const pngBase64Prefix = "iVBORw0KGgo"

// looksLikePNG reports whether the payload is a base64-encoded PNG rather
// than a direct token.
func looksLikePNG(payload string) bool {
	return len(payload) > 1000 && strings.Contains(payload, pngBase64Prefix)
}

// ExtractToken recovers the scannable token text from a QR payload. A
// base64 PNG payload is decoded to pixels and read as a QR code; anything
// else is already the token.
func ExtractToken(payload string) (string, error) {
	if !looksLikePNG(payload) {
		return payload, nil
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("qr: decode base64: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("qr: decode png: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("qr: bitmap: %w", err)
	}

	result, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", fmt.Errorf("qr: read code: %w", err)
	}
	return result.GetText(), nil
}

// Render draws the token as a scannable half-block QR code. The writer is
// stderr in practice; stdout belongs to the host event wire.
func Render(token string, w io.Writer) {
	fmt.Fprintln(w, "=== SCAN THIS QR CODE WITH YOUR PHONE ===")
	qrterminal.GenerateHalfBlock(token, qrterminal.L, w)
	fmt.Fprintln(w, "=== QR CODE ABOVE ===")
}

// Deduper suppresses redisplay of an unchanged QR payload inside a time
// window, so a slow-rotating challenge does not spam the terminal, while
// a fresh challenge always shows immediately.
type Deduper struct {
	mu     sync.Mutex
	window time.Duration
	last   string
	shown  time.Time
	now    func() time.Time
}

// NewDeduper creates a Deduper with the given suppression window.
func NewDeduper(window time.Duration) *Deduper {
	return &Deduper{window: window, now: time.Now}
}

// ShouldDisplay reports whether this payload should be rendered, and
// records the display when it should.
func (d *Deduper) ShouldDisplay(payload string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if payload == d.last && now.Sub(d.shown) < d.window {
		return false
	}
	d.last = payload
	d.shown = now
	return true
}
