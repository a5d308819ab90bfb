package images

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/t2bot/media-converter/common"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
	FormatWebP Format = "webp"
	FormatAVIF Format = "avif"
	FormatHEIC Format = "heic"
)

var contentTypes = map[Format]string{
	FormatJPEG: "image/jpeg",
	FormatPNG:  "image/png",
	FormatGIF:  "image/gif",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
	FormatWebP: "image/webp",
	FormatAVIF: "image/avif",
	FormatHEIC: "image/heic",
}

// Formats we can read. AVIF is write-only and HEIC is read-only.
var decodable = map[Format]bool{
	FormatJPEG: true,
	FormatPNG:  true,
	FormatGIF:  true,
	FormatBMP:  true,
	FormatTIFF: true,
	FormatWebP: true,
	FormatHEIC: true,
}

func (f Format) ContentType() string {
	return contentTypes[f]
}

func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

func FormatFromContentType(contentType string) (Format, bool) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch contentType {
	case "image/x-ms-bmp":
		contentType = "image/bmp"
	case "image/heif", "image/heic-sequence", "image/heif-sequence":
		contentType = "image/heic"
	}
	for f, ct := range contentTypes {
		if ct == contentType {
			return f, true
		}
	}
	return "", false
}

// Detect sniffs the image container from its leading bytes.
func Detect(b []byte) (Format, error) {
	mime := mimetype.Detect(b)
	f, ok := FormatFromContentType(mime.String())
	if !ok || !decodable[f] {
		return "", common.ErrUnsupportedMedia
	}
	return f, nil
}
