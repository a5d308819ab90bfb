package naming

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxBaseLength = 100

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Sanitize maps a user-supplied file name onto [A-Za-z0-9._-]. The result is deterministic and never
// empty, but two different names can sanitize to the same value.
func Sanitize(originalName string) string {
	// transform.Chain is stateful, so a new one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(stripMarks, originalName)
	if err != nil {
		s = originalName
	}

	s = unsafeChars.ReplaceAllString(s, "_")
	s = strings.TrimLeft(s, ".")
	if len(s) > maxBaseLength {
		s = s[:maxBaseLength]
	}

	if strings.Trim(s, "._") == "" {
		return fallbackName(originalName)
	}
	return s
}

// BaseName drops the final extension and sanitizes what is left.
func BaseName(originalName string) string {
	return Sanitize(strings.TrimSuffix(originalName, path.Ext(originalName)))
}

func fallbackName(originalName string) string {
	h := sha1.Sum([]byte(originalName))
	return "file-" + hex.EncodeToString(h[:])[:8]
}
