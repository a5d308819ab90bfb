package images

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/buckket/go-blurhash"
	"github.com/disintegration/imaging"
	"github.com/t2bot/media-converter/common"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ResizeOptions struct {
	Width    int
	Height   int
	ExactFit bool
}

type EncodeOptions struct {
	Format   Format
	Quality  int
	Resize   *ResizeOptions
	Blur     float64
	Optimize bool
}

// Codec is the image collaborator used by conversions. It is stateless and safe for concurrent use.
type Codec struct {
	// MaxPixels guards against decompression bombs. Zero disables the check.
	MaxPixels int
}

func NewCodec(maxDimension int) *Codec {
	return &Codec{MaxPixels: maxDimension * maxDimension}
}

func (c *Codec) decode(src []byte) (image.Image, error) {
	if c.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
		if err != nil {
			return nil, common.NewItemError(common.ErrCorruptMedia, err)
		}
		if cfg.Width*cfg.Height > c.MaxPixels {
			return nil, common.NewItemError(common.ErrMediaTooLarge, fmt.Errorf("image has too many pixels (%dx%d)", cfg.Width, cfg.Height))
		}
	}
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, common.NewItemError(common.ErrCorruptMedia, err)
	}
	return img, nil
}

// Dimensions reads the displayed size from the image header without decoding the pixels. EXIF
// orientation is honoured so the result matches what Encode and Resize produce.
func (c *Codec) Dimensions(src []byte) (int, int, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, common.NewItemError(common.ErrCorruptMedia, err)
	}
	if format == "jpeg" && orientationSwapsAxes(exifOrientation(src)) {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}

func resize(img image.Image, opts ResizeOptions) image.Image {
	if opts.Width <= 0 && opts.Height <= 0 {
		return img
	}
	if opts.ExactFit || opts.Width <= 0 || opts.Height <= 0 {
		// imaging preserves the aspect ratio when one side is zero
		return imaging.Resize(img, opts.Width, opts.Height, imaging.Lanczos)
	}
	return imaging.Fit(img, opts.Width, opts.Height, imaging.Lanczos)
}

func (c *Codec) Encode(ctx context.Context, src []byte, opts EncodeOptions) ([]byte, error) {
	img, err := c.decode(src)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Resize != nil {
		img = resize(img, *opts.Resize)
	}
	if opts.Blur > 0 {
		img = imaging.Blur(img, opts.Blur)
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	return encode(img, opts.Format, clampQuality(opts.Quality), opts.Optimize)
}

// Resize produces a lossless PNG intermediate at the requested size.
func (c *Codec) Resize(ctx context.Context, src []byte, opts ResizeOptions) ([]byte, error) {
	img, err := c.decode(src)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return encode(resize(img, opts), FormatPNG, 100, false)
}

// Blurhash computes a blurhash from a small thumbnail of the source.
func (c *Codec) Blurhash(ctx context.Context, src []byte, xComponents int, yComponents int) (string, error) {
	img, err := c.decode(src)
	if err != nil {
		return "", err
	}
	if err = ctx.Err(); err != nil {
		return "", err
	}
	img = imaging.Fill(img, 64, 64, imaging.Center, imaging.Lanczos)
	return blurhash.Encode(xComponents, yComponents, img)
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
