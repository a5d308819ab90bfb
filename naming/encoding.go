package naming

import (
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
)

// RepairEncoding undoes the usual damage file names pick up in transit: UTF-8 that was decoded as
// Latin-1 somewhere along the way, and names that are not UTF-8 at all. The result is always valid UTF-8.
func RepairEncoding(name string) string {
	if !utf8.ValidString(name) {
		return toUtf8(name)
	}
	if !isLatin1Range(name) {
		return name
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(name)
	if err != nil || !utf8.ValidString(raw) {
		return name
	}
	return raw
}

// isLatin1Range reports whether every rune fits in one Latin-1 byte and at least one is outside ASCII.
func isLatin1Range(s string) bool {
	high := false
	for _, r := range s {
		if r > 0xFF {
			return false
		}
		if r >= 0x80 {
			high = true
		}
	}
	return high
}

func toUtf8(text string) string {
	detector := chardet.NewTextDetector()
	if cs, err := detector.DetectBest([]byte(text)); err == nil {
		if enc, _ := charset.Lookup(cs.Charset); enc != nil {
			if converted, err := enc.NewDecoder().String(text); err == nil && utf8.ValidString(converted) {
				return converted
			}
		}
	}

	// Best we can do
	if converted, err := charmap.Windows1252.NewDecoder().String(text); err == nil {
		return strings.ToValidUTF8(converted, "_")
	}
	return strings.ToValidUTF8(text, "_")
}
