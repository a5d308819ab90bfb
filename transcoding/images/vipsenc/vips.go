// Package vipsenc adds WebP and AVIF encoders backed by libvips. Importing it registers the
// encoders; Startup must run before the first conversion.
package vipsenc

import (
	"bytes"
	"image"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/transcoding/images"
)

var startOnce = &sync.Once{}

func Startup(concurrency int) {
	startOnce.Do(func() {
		vips.LoggingSettings(func(domain string, level vips.LogLevel, msg string) {
			logrus.WithField("vips_domain", domain).Debug(msg)
		}, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: concurrency,
		})
	})
}

func Shutdown() {
	vips.Shutdown()
}

func toVips(img image.Image) (*vips.ImageRef, error) {
	// PNG is the cheapest lossless handoff libvips understands
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return vips.NewImageFromBuffer(buf.Bytes())
}

func encodeWebp(img image.Image, quality int, optimize bool) ([]byte, error) {
	ref, err := toVips(img)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	params := vips.NewWebpExportParams()
	params.Quality = quality
	params.StripMetadata = true
	if optimize {
		params.ReductionEffort = 6
	}
	b, _, err := ref.ExportWebp(params)
	return b, err
}

func encodeAvif(img image.Image, quality int, optimize bool) ([]byte, error) {
	ref, err := toVips(img)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	params := vips.NewAvifExportParams()
	params.Quality = quality
	params.StripMetadata = true
	if optimize {
		params.Speed = 2
	}
	b, _, err := ref.ExportAvif(params)
	return b, err
}

func init() {
	images.RegisterEncoder(images.FormatWebP, images.EncoderFunc(encodeWebp))
	images.RegisterEncoder(images.FormatAVIF, images.EncoderFunc(encodeAvif))
}
