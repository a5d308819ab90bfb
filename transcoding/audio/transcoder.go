package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const OutputContentType = "audio/mpeg"
const OutputExtension = "mp3"

type TranscodeOptions struct {
	Bitrate  string // ffmpeg notation, eg: 192k
	Channels int
	Speed    float64
}

// Transcoder converts audio to MP3 by piping it through ffmpeg.
type Transcoder struct {
	FfmpegPath string
}

func NewTranscoder(ffmpegPath string) *Transcoder {
	ffmpegPath = strings.TrimSpace(ffmpegPath)
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Transcoder{FfmpegPath: ffmpegPath}
}

// Available reports whether the ffmpeg binary can be found.
func (t *Transcoder) Available() error {
	_, err := exec.LookPath(t.FfmpegPath)
	return err
}

func (t *Transcoder) args(opts TranscodeOptions) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-ac", strconv.Itoa(opts.Channels),
		"-b:a", opts.Bitrate,
	}
	if opts.Speed > 0 && opts.Speed != 1.0 {
		// atempo keeps the pitch
		args = append(args, "-filter:a", "atempo="+strconv.FormatFloat(opts.Speed, 'f', -1, 64))
	}
	return append(args, "-f", "mp3", "pipe:1")
}

func (t *Transcoder) Transcode(ctx context.Context, src []byte, opts TranscodeOptions) ([]byte, error) {
	if opts.Channels <= 0 || opts.Bitrate == "" {
		return nil, errors.New("ffmpeg: channels and bitrate are required")
	}

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, t.FfmpegPath, t.args(opts)...)
	cmd.Stdin = bytes.NewReader(src)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, errors.New("ffmpeg: no output produced")
	}
	return stdout.Bytes(), nil
}
