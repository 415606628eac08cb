package classify

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// unsafeChars are characters that cannot appear in filenames on common
// filesystems.
const unsafeChars = `<>:"/\|?*`

// SanitizeName makes a sender name safe for use in a filename: strips
// filesystem-unsafe characters, collapses whitespace and repeated
// underscores to single underscores, and trims leading/trailing
// underscores. An empty result becomes "unknown".
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(unsafeChars, r):
			// drop
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	s := b.String()
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")

	if s == "" {
		return "unknown"
	}
	return s
}

// InferMedia normalizes a provider-reported MIME type to a file extension
// and canonical MIME for the host event.
func InferMedia(mimeType string) (ext, mime string) {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "image"):
		return "jpg", "image/jpeg"
	case strings.HasPrefix(mt, "video"):
		return "mp4", "video/mp4"
	case strings.HasPrefix(mt, "audio"):
		return "ogg", "audio/ogg"
	case strings.Contains(mt, "pdf"):
		return "pdf", "application/pdf"
	default:
		return "bin", "application/octet-stream"
	}
}

// MediaFilename derives the filename for a forwarded media event from the
// sender name, the message timestamp, and the provider MIME type.
func MediaFilename(senderName string, ts time.Time, mimeType string) string {
	ext, _ := InferMedia(mimeType)
	return fmt.Sprintf("%s_%s.%s", SanitizeName(senderName), ts.UTC().Format("20060102_150405"), ext)
}
