package options

import (
	"fmt"

	"github.com/t2bot/media-converter/common"
)

const (
	DefaultQuality      = 80
	MinQuality          = 1
	MaxQuality          = 100
	DefaultMaxDimension = 8192

	DefaultSpeed = 1.0
	MinSpeed     = 0.5
	MaxSpeed     = 1.5
)

// ConversionConfig is the resolved, validated settings for one item. Implementations are value types.
type ConversionConfig interface {
	Kind() common.Kind
}

// ImageConfig describes a resize and re-encode. A zero Width or Height means the dimension is absent.
type ImageConfig struct {
	Width   int
	Height  int
	Quality int
}

func (c ImageConfig) Kind() common.Kind {
	return common.KindImage
}

func (c ImageConfig) WantsResize() bool {
	return c.Width > 0 || c.Height > 0
}

// TargetSize fills in a missing dimension from the source aspect ratio.
func (c ImageConfig) TargetSize(srcWidth int, srcHeight int) (int, int) {
	w, h := c.Width, c.Height
	if srcWidth <= 0 || srcHeight <= 0 {
		return w, h
	}
	if w > 0 && h <= 0 {
		h = int(float64(srcHeight)*float64(w)/float64(srcWidth) + 0.5)
	} else if h > 0 && w <= 0 {
		w = int(float64(srcWidth)*float64(h)/float64(srcHeight) + 0.5)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func DefaultImageConfig() ImageConfig {
	return ImageConfig{Quality: DefaultQuality}
}

type Bitrate string

const (
	Bitrate128 Bitrate = "128k"
	Bitrate192 Bitrate = "192k"
	Bitrate320 Bitrate = "320k"

	DefaultBitrate = Bitrate192
)

type Channels int

const (
	Mono   Channels = 1
	Stereo Channels = 2

	DefaultChannels = Stereo
)

func (c Channels) String() string {
	switch c {
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", int(c))
	}
}

type AudioConfig struct {
	Bitrate  Bitrate
	Channels Channels
	Speed    float64
}

func (c AudioConfig) Kind() common.Kind {
	return common.KindAudio
}

func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		Bitrate:  DefaultBitrate,
		Channels: DefaultChannels,
		Speed:    DefaultSpeed,
	}
}

func DefaultFor(kind common.Kind) ConversionConfig {
	if kind == common.KindAudio {
		return DefaultAudioConfig()
	}
	return DefaultImageConfig()
}
