package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/gabriel-vasile/mimetype"
	"github.com/t2bot/media-converter/common"
)

type Info struct {
	ContentType string
	Channels    int
	SampleRate  int
	Duration    time.Duration

	// From embedded tags, when present
	Title  string
	Artist string
}

type byteCloser struct {
	*bytes.Reader
}

func (c byteCloser) Close() error {
	return nil
}

type decoder func(b []byte) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decoder{
	"audio/wav": func(b []byte) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(bytes.NewReader(b))
	},
	"audio/mpeg": func(b []byte) (beep.StreamSeekCloser, beep.Format, error) {
		return mp3.Decode(byteCloser{bytes.NewReader(b)})
	},
	"audio/flac": func(b []byte) (beep.StreamSeekCloser, beep.Format, error) {
		return flac.Decode(bytes.NewReader(b))
	},
	"audio/ogg": func(b []byte) (beep.StreamSeekCloser, beep.Format, error) {
		return vorbis.Decode(byteCloser{bytes.NewReader(b)})
	},
}

var aliases = map[string]string{
	"audio/x-wav":  "audio/wav",
	"audio/wave":   "audio/wav",
	"audio/x-flac": "audio/flac",
	"audio/mp3":    "audio/mpeg",
}

// DetectContentType sniffs the container, returning common.ErrUnsupportedMedia for anything the
// probe cannot decode.
func DetectContentType(b []byte) (string, error) {
	mime := mimetype.Detect(b)
	for m := mime; m != nil; m = m.Parent() {
		ct := m.String()
		if alias, ok := aliases[ct]; ok {
			ct = alias
		}
		if _, ok := decoders[ct]; ok {
			return ct, nil
		}
	}
	return "", common.ErrUnsupportedMedia
}

// Probe decodes enough of the audio to prove it is readable and reports its shape.
func Probe(b []byte) (*Info, error) {
	ct, err := DetectContentType(b)
	if err != nil {
		return nil, err
	}

	stream, format, err := decoders[ct](b)
	if err != nil {
		return nil, common.NewItemError(common.ErrCorruptMedia, fmt.Errorf("%s: error decoding audio: %w", ct, err))
	}
	defer stream.Close()

	samples := make([][2]float64, 512)
	n, _ := stream.Stream(samples)
	if stream.Err() != nil && stream.Err() != io.EOF {
		return nil, common.NewItemError(common.ErrCorruptMedia, fmt.Errorf("%s: error sampling audio: %w", ct, stream.Err()))
	}
	if n == 0 {
		return nil, common.NewItemError(common.ErrCorruptMedia, errors.New(ct+": no audio samples"))
	}

	info := &Info{
		ContentType: ct,
		Channels:    format.NumChannels,
		SampleRate:  int(format.SampleRate),
	}
	if l := stream.Len(); l > 0 {
		info.Duration = format.SampleRate.D(l)
	}
	if meta, err := tag.ReadFrom(bytes.NewReader(b)); err == nil {
		info.Title = strings.TrimSpace(meta.Title())
		info.Artist = strings.TrimSpace(meta.Artist())
	}
	return info, nil
}
