package conversion

import (
	"context"
	"time"

	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/transcoding/audio"
	"github.com/t2bot/media-converter/transcoding/images"
)

// Content is the staged upload behind an item.
type Content interface {
	Bytes() ([]byte, error)
	Release() error
}

type InputItem struct {
	Index     int
	Name      string // as uploaded, after encoding repair
	Kind      common.Kind
	SizeBytes int64
	Content   Content
}

func (i *InputItem) OriginalName() string {
	return i.Name
}

func (i *InputItem) MediaKind() common.Kind {
	return i.Kind
}

type ArtifactKind string

const (
	ArtifactWebp            ArtifactKind = "webp"
	ArtifactAvif            ArtifactKind = "avif"
	ArtifactResizedOriginal ArtifactKind = "resized-original"
	ArtifactTranscodedAudio ArtifactKind = "transcoded-audio"
)

type Artifact struct {
	Kind        ArtifactKind
	VirtualPath string
	SizeBytes   int64
	ContentType string
	SourceItem  *InputItem
}

type ItemResult struct {
	Item      *InputItem
	Status    Status
	Artifacts []*Artifact
	Err       error

	// Images only
	Placeholder string
	Blurhash    string
	Width       int
	Height      int

	// Audio only
	SourceDuration time.Duration
	OutputDuration time.Duration
	Title          string
	Artist         string
}

func (r *ItemResult) Artifact(kind ArtifactKind) *Artifact {
	for _, a := range r.Artifacts {
		if a.Kind == kind {
			return a
		}
	}
	return nil
}

type ImageCodec interface {
	Encode(ctx context.Context, src []byte, opts images.EncodeOptions) ([]byte, error)
	Resize(ctx context.Context, src []byte, opts images.ResizeOptions) ([]byte, error)
	Dimensions(src []byte) (int, int, error)
	Blurhash(ctx context.Context, src []byte, xComponents int, yComponents int) (string, error)
}

type AudioTranscoder interface {
	Transcode(ctx context.Context, src []byte, opts audio.TranscodeOptions) ([]byte, error)
}

type OutputWriter interface {
	WriteOutput(fileName string, data []byte) (string, error)
	RemoveOutput(location string)
}

type Registrar interface {
	Register(virtualPath string, absoluteLocation string) error
}
