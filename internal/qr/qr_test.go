package qr

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTokenDirect(t *testing.T) {
	token, err := ExtractToken("2@abcdef,direct-token")
	require.NoError(t, err)
	assert.Equal(t, "2@abcdef,direct-token", token)
}

func TestExtractTokenShortBase64IsDirect(t *testing.T) {
	// short payloads are tokens even when they happen to contain base64
	token, err := ExtractToken("iVBORw0KGgo-short")
	require.NoError(t, err)
	assert.Equal(t, "iVBORw0KGgo-short", token)
}

func TestExtractTokenBadPNG(t *testing.T) {
	// long base64-ish payload with the PNG magic but garbage pixels
	payload := "iVBORw0KGgo" + strings.Repeat("AAAA", 300)
	_, err := ExtractToken(payload)
	assert.Error(t, err)
}

func TestRenderWritesScannableBlock(t *testing.T) {
	var buf bytes.Buffer
	Render("2@token-value", &buf)

	out := buf.String()
	assert.Contains(t, out, "SCAN THIS QR CODE")
	assert.Contains(t, out, "QR CODE ABOVE")
	assert.Greater(t, len(out), 200, "expected a rendered block, got %q", out)
}

func TestDeduper(t *testing.T) {
	now := time.Unix(1700000000, 0)
	d := NewDeduper(5 * time.Second)
	d.now = func() time.Time { return now }

	assert.True(t, d.ShouldDisplay("qr-1"), "first display always shows")
	assert.False(t, d.ShouldDisplay("qr-1"), "identical payload inside window is suppressed")

	now = now.Add(2 * time.Second)
	assert.False(t, d.ShouldDisplay("qr-1"))

	assert.True(t, d.ShouldDisplay("qr-2"), "a fresh challenge always shows")

	now = now.Add(6 * time.Second)
	assert.True(t, d.ShouldDisplay("qr-2"), "window elapsed, redisplay allowed")
}
