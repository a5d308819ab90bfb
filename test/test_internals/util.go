package test_internals

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/media-converter/transcoding/images"
)

var evenColor = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
var oddColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
var altColor = color.NRGBA{R: 0, G: 0, B: 255, A: 255}

func colorFor(x int, y int) color.Color {
	c := oddColor
	if (y%2.0) == 0 && (x%2.0) == 0 {
		c = altColor
	} else if (y%2.0) == 0 || (x%2.0) == 0 {
		c = evenColor
	}
	return c
}

func makeCheckerboard(width int, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, colorFor(x, y))
		}
	}
	return img
}

// MakeTestImage renders a checkerboard in the given format (imaging.PNG, imaging.JPEG, ...).
func MakeTestImage(t *testing.T, width int, height int, format imaging.Format) []byte {
	b := bytes.NewBuffer(make([]byte, 0))
	err := imaging.Encode(b, makeCheckerboard(width, height), format)
	require.NoError(t, err, "Error encoding test image")
	return b.Bytes()
}

func AssertIsTestImage(t *testing.T, i io.Reader) {
	img, _, err := image.Decode(i)
	if !assert.NoError(t, err, "Error decoding image") {
		return
	}
	width := img.Bounds().Max.X
	height := img.Bounds().Max.Y
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			r1, g1, b1, a1 := colorFor(x, y).RGBA()
			r2, g2, b2, a2 := img.At(x, y).RGBA()
			if !assert.Equal(t, []uint32{r1, g1, b1, a1}, []uint32{r2, g2, b2, a2}, fmt.Sprintf("Wrong colour for pixel %d,%d", x, y)) {
				return // don't print thousands of errors
			}
		}
	}
}

func AssertImageSize(t *testing.T, b []byte, width int, height int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if !assert.NoError(t, err, "Error decoding image header") {
		return
	}
	assert.Equal(t, width, cfg.Width, "width")
	assert.Equal(t, height, cfg.Height, "height")
}

// WithExifOrientation inserts a minimal big-endian EXIF block carrying the orientation tag right
// after the SOI marker of a JPEG.
func WithExifOrientation(t *testing.T, jpeg []byte, orientation uint16) []byte {
	require.True(t, len(jpeg) > 2 && jpeg[0] == 0xFF && jpeg[1] == 0xD8, "not a jpeg")
	app1 := []byte{
		0xFF, 0xE1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2A, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01,
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
	}
	out := make([]byte, 0, len(jpeg)+len(app1))
	out = append(out, jpeg[:2]...)
	out = append(out, app1...)
	return append(out, jpeg[2:]...)
}

// MakeTestWav renders a 440Hz tone as 16-bit PCM.
func MakeTestWav(t *testing.T, seconds float64, sampleRate int, channels int) []byte {
	sr := beep.SampleRate(sampleRate)
	total := sr.N(time.Duration(seconds * float64(time.Second)))
	pos := 0
	tone := beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for i := range samples {
			if pos >= total {
				return i, i > 0
			}
			v := 0.5 * math.Sin(2*math.Pi*440*float64(pos)/float64(sampleRate))
			samples[i][0] = v
			samples[i][1] = v
			pos++
		}
		return len(samples), true
	})

	f, err := os.Create(filepath.Join(t.TempDir(), "tone.wav"))
	require.NoError(t, err)
	defer f.Close()

	err = wav.Encode(f, tone, beep.Format{SampleRate: sr, NumChannels: channels, Precision: 2})
	require.NoError(t, err)

	b, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return b
}

// RegisterFakeNextGenEncoders stands in for the libvips WebP/AVIF encoders so tests run without
// libvips. The "encoded" bytes are PNG.
func RegisterFakeNextGenEncoders() {
	fake := images.EncoderFunc(func(img image.Image, quality int, optimize bool) ([]byte, error) {
		buf := &bytes.Buffer{}
		if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
	images.RegisterEncoder(images.FormatWebP, fake)
	images.RegisterEncoder(images.FormatAVIF, fake)
}
