package text

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeFilenameRe = regexp.MustCompile(`[^\w.-]+`)

// SanitizeFilename maps an arbitrary repository name to a portable filename
// component. Runs of unsafe characters collapse to a single underscore.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameRe.ReplaceAllString(name, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

// Truncate bounds s to max bytes, appending a marker noting how many bytes
// were dropped. Truncation is always explicit, never silent.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + truncationMarker(len(s)-max)
}

// TruncateHead bounds s to max bytes keeping the tail, prepending the marker.
// Used when older context matters less than recent context.
func TruncateHead(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	dropped := len(s) - max
	return truncationMarker(dropped) + s[dropped:]
}

func truncationMarker(dropped int) string {
	return fmt.Sprintf("\n[truncated %d bytes]\n", dropped)
}
