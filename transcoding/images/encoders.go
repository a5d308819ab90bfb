package images

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
)

// Encoder turns a decoded image into the bytes of one format. Quality is 1-100 and may be ignored
// by lossless formats.
type Encoder interface {
	Encode(img image.Image, quality int, optimize bool) ([]byte, error)
}

type EncoderFunc func(img image.Image, quality int, optimize bool) ([]byte, error)

func (f EncoderFunc) Encode(img image.Image, quality int, optimize bool) ([]byte, error) {
	return f(img, quality, optimize)
}

var encoders = make(map[Format]Encoder)
var encodersLock = &sync.RWMutex{}

func RegisterEncoder(format Format, encoder Encoder) {
	encodersLock.Lock()
	defer encodersLock.Unlock()
	encoders[format] = encoder
}

func HasEncoder(format Format) bool {
	_, ok := getEncoder(format)
	return ok
}

func getEncoder(format Format) (Encoder, bool) {
	encodersLock.RLock()
	defer encodersLock.RUnlock()
	e, ok := encoders[format]
	return e, ok
}

func encode(img image.Image, format Format, quality int, optimize bool) ([]byte, error) {
	e, ok := getEncoder(format)
	if !ok {
		return nil, fmt.Errorf("no encoder available for %s", format)
	}
	return e.Encode(img, quality, optimize)
}

func imagingEncoder(format imaging.Format) EncoderFunc {
	return func(img image.Image, quality int, optimize bool) ([]byte, error) {
		opts := make([]imaging.EncodeOption, 0)
		switch format {
		case imaging.JPEG:
			opts = append(opts, imaging.JPEGQuality(quality))
		case imaging.PNG:
			if optimize {
				opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
			}
		case imaging.GIF:
			if optimize {
				opts = append(opts, imaging.GIFNumColors(256))
			}
		}

		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, img, format, opts...); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func init() {
	RegisterEncoder(FormatJPEG, imagingEncoder(imaging.JPEG))
	RegisterEncoder(FormatPNG, imagingEncoder(imaging.PNG))
	RegisterEncoder(FormatGIF, imagingEncoder(imaging.GIF))
	RegisterEncoder(FormatBMP, imagingEncoder(imaging.BMP))
	RegisterEncoder(FormatTIFF, imagingEncoder(imaging.TIFF))
}
