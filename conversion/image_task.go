package conversion

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/transcoding/images"
)

const placeholderPrefix = "data:image/jpeg;base64,"

func (c *Converter) runImage(ctx rcontext.RequestContext, item *InputItem, cfg options.ImageConfig, settings Settings, result *ItemResult) error {
	if c.Images == nil {
		return errors.New("no image codec configured")
	}
	src, err := readContent(item)
	if err != nil {
		return err
	}

	format, err := images.Detect(src)
	if err != nil {
		return errors.Wrap(err, "detecting image format")
	}
	srcWidth, srcHeight, err := c.Images.Dimensions(src)
	if err != nil {
		return classify(common.ErrCorruptMedia, errors.Wrap(err, "reading image dimensions"))
	}
	ctx.Log.Debugf("Source is %s at %dx%d", format, srcWidth, srcHeight)

	placeholder, err := invoke(ctx, "placeholder", func(ictx context.Context) ([]byte, error) {
		return c.Images.Encode(ictx, src, images.EncodeOptions{
			Format:  images.FormatJPEG,
			Quality: settings.PlaceholderQuality,
			Resize:  &images.ResizeOptions{Width: settings.PlaceholderWidth},
			Blur:    settings.PlaceholderBlur,
		})
	})
	if err != nil {
		return classify(common.ErrEncodeFailed, err)
	}

	working := src
	resized := cfg.WantsResize()
	result.Width, result.Height = srcWidth, srcHeight
	if resized {
		w, h := cfg.TargetSize(srcWidth, srcHeight)
		working, err = invoke(ctx, "resize", func(ictx context.Context) ([]byte, error) {
			return c.Images.Resize(ictx, src, images.ResizeOptions{Width: w, Height: h, ExactFit: true})
		})
		if err != nil {
			return classify(common.ErrEncodeFailed, err)
		}
		result.Width, result.Height = w, h
	}

	outputs := make([]pendingOutput, 0, 3)
	for _, variant := range []struct {
		kind   ArtifactKind
		format images.Format
	}{{ArtifactWebp, images.FormatWebP}, {ArtifactAvif, images.FormatAVIF}} {
		f := variant.format
		b, err := invoke(ctx, string(variant.kind), func(ictx context.Context) ([]byte, error) {
			return c.Images.Encode(ictx, working, images.EncodeOptions{Format: f, Quality: cfg.Quality})
		})
		if err != nil {
			return classify(common.ErrEncodeFailed, err)
		}
		outputs = append(outputs, pendingOutput{
			kind:        variant.kind,
			extension:   f.Extension(),
			contentType: f.ContentType(),
			data:        b,
		})
	}

	if resized {
		target := format
		if !images.HasEncoder(target) {
			ctx.Log.Warnf("No encoder for %s - resized original will be PNG", target)
			target = images.FormatPNG
		}
		b, err := invoke(ctx, string(ArtifactResizedOriginal), func(ictx context.Context) ([]byte, error) {
			return c.Images.Encode(ictx, working, images.EncodeOptions{Format: target, Quality: cfg.Quality, Optimize: true})
		})
		if err != nil {
			return classify(common.ErrEncodeFailed, err)
		}
		outputs = append(outputs, pendingOutput{
			kind:        ArtifactResizedOriginal,
			suffix:      "-resized",
			extension:   target.Extension(),
			contentType: target.ContentType(),
			data:        b,
		})
	}

	if settings.Blurhash {
		bh, err := invoke(ctx, "blurhash", func(ictx context.Context) (string, error) {
			return c.Images.Blurhash(ictx, src, settings.BlurhashXComponents, settings.BlurhashYComponents)
		})
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			ctx.Log.Debug("Skipping blurhash due to error: ", err)
		} else {
			result.Blurhash = bh
		}
	}

	artifacts, err := c.commit(ctx, item, outputs)
	if err != nil {
		return err
	}
	result.Artifacts = artifacts
	result.Placeholder = placeholderPrefix + base64.StdEncoding.EncodeToString(placeholder)
	return nil
}
