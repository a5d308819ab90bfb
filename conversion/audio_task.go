package conversion

import (
	"context"

	"github.com/pkg/errors"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/transcoding/audio"
)

func (c *Converter) runAudio(ctx rcontext.RequestContext, item *InputItem, cfg options.AudioConfig, result *ItemResult) error {
	if c.Audio == nil {
		return errors.New("no audio transcoder configured")
	}
	src, err := readContent(item)
	if err != nil {
		return err
	}

	info, err := invoke(ctx, "probe", func(ictx context.Context) (*audio.Info, error) {
		return audio.Probe(src)
	})
	if err != nil {
		return classify(common.ErrCorruptMedia, err)
	}
	result.SourceDuration = info.Duration
	result.Title = info.Title
	result.Artist = info.Artist
	ctx.Log.Debugf("Source is %s, %d channels at %dHz, %s long", info.ContentType, info.Channels, info.SampleRate, info.Duration)

	out, err := invoke(ctx, "transcode", func(ictx context.Context) ([]byte, error) {
		return c.Audio.Transcode(ictx, src, audio.TranscodeOptions{
			Bitrate:  string(cfg.Bitrate),
			Channels: int(cfg.Channels),
			Speed:    cfg.Speed,
		})
	})
	if err != nil {
		return classify(common.ErrTranscodeFailed, err)
	}

	if outInfo, err := audio.Probe(out); err != nil {
		ctx.Log.Warn("Unable to read back transcoded audio: ", err)
	} else {
		result.OutputDuration = outInfo.Duration
	}

	artifacts, err := c.commit(ctx, item, []pendingOutput{{
		kind:        ArtifactTranscodedAudio,
		extension:   audio.OutputExtension,
		contentType: audio.OutputContentType,
		data:        out,
	}})
	if err != nil {
		return err
	}
	result.Artifacts = artifacts
	return nil
}
