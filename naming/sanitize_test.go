package naming

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeCharset(t *testing.T) {
	inputs := []string{
		"holiday photo.jpg",
		"Crème brûlée.PNG",
		"../../etc/passwd",
		"..",
		".",
		"",
		"日本語.wav",
		"a/b\\c:d*e?f\"g<h>i|j",
		"emoji 😀 track.mp3",
		"___",
		"....hidden",
	}
	for _, in := range inputs {
		out := Sanitize(in)
		assert.NotEmpty(t, out, "input %q", in)
		assert.Regexp(t, `^[A-Za-z0-9._-]+$`, out, "input %q", in)
		assert.NotEqual(t, ".", out)
		assert.NotEqual(t, "..", out)
		assert.False(t, out[0] == '.', "input %q gave %q", in, out)
		assert.Equal(t, out, Sanitize(in), "not deterministic for %q", in)
	}
}

func TestSanitizeStripsAccents(t *testing.T) {
	assert.Equal(t, "Creme_brulee.PNG", Sanitize("Crème brûlée.PNG"))
	assert.Equal(t, "nino", Sanitize("niño"))
	assert.Equal(t, "my-file_v2.tar.gz", Sanitize("my-file v2.tar.gz"))
}

func TestSanitizeFallback(t *testing.T) {
	a := Sanitize("日本語")
	b := Sanitize("中文")
	assert.Regexp(t, `^file-[0-9a-f]{8}$`, a)
	assert.Regexp(t, `^file-[0-9a-f]{8}$`, b)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sanitize("日本語"))
}

func TestSanitizeLength(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "a"
	}
	assert.Len(t, Sanitize(long), maxBaseLength)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "holiday_photo", BaseName("holiday photo.jpg"))
	assert.Equal(t, "archive.tar", BaseName("archive.tar.gz"))
	assert.Equal(t, "noext", BaseName("noext"))
	assert.Regexp(t, `^file-[0-9a-f]{8}$`, BaseName(".jpg"))
}

func TestRepairEncoding(t *testing.T) {
	// UTF-8 bytes that were read as Latin-1
	assert.Equal(t, "café.png", RepairEncoding("cafÃ©.png"))

	// Already fine
	assert.Equal(t, "café.png", RepairEncoding("café.png"))
	assert.Equal(t, "plain.wav", RepairEncoding("plain.wav"))
	assert.Equal(t, "日本語.wav", RepairEncoding("日本語.wav"))

	// Not UTF-8 at all
	out := RepairEncoding("caf\xe9 au lait.png")
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "caf")
	assert.Contains(t, out, ".png")
}
