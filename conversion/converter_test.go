package conversion

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/metrics"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/registry"
	"github.com/t2bot/media-converter/scratch"
	"github.com/t2bot/media-converter/test/test_internals"
	"github.com/t2bot/media-converter/transcoding/audio"
	"github.com/t2bot/media-converter/transcoding/images"
)

type ConverterSuite struct {
	suite.Suite
	space     *scratch.Space
	registry  *registry.Registry
	converter *Converter
	ctx       rcontext.RequestContext
}

func TestConverterSuite(t *testing.T) {
	suite.Run(t, new(ConverterSuite))
}

func (s *ConverterSuite) SetupTest() {
	test_internals.RegisterFakeNextGenEncoders()

	root := s.T().TempDir()
	space, err := scratch.Init(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"))
	s.Require().NoError(err)
	s.space = space
	s.registry = registry.New()

	cfg := config.NewDefaultMainConfig()
	s.converter = &Converter{
		Images:   images.NewCodec(cfg.Images.MaxDimension),
		Audio:    &recordingTranscoder{},
		Outputs:  s.space,
		Registry: s.registry,
		Settings: SettingsFromConfig(&cfg),
	}
	s.ctx = rcontext.New(context.Background(), logrus.WithField("test", s.T().Name()), &cfg)
}

func (s *ConverterSuite) stage(name string, kind common.Kind, b []byte) *InputItem {
	staged, err := s.space.Stage(bytes.NewReader(b), 0)
	s.Require().NoError(err)
	return &InputItem{Name: name, Kind: kind, SizeBytes: staged.Size, Content: staged}
}

func (s *ConverterSuite) readArtifact(a *Artifact) []byte {
	location, ok := s.registry.Resolve(a.VirtualPath)
	s.Require().True(ok, "artifact %s is not registered", a.VirtualPath)
	b, err := os.ReadFile(location)
	s.Require().NoError(err)
	s.Equal(int64(len(b)), a.SizeBytes)
	return b
}

func (s *ConverterSuite) TestImageWithoutResize() {
	item := s.stage("holiday photo.png", common.KindImage, test_internals.MakeTestImage(s.T(), 64, 48, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.ImageConfig{Quality: 80})

	s.Require().NoError(result.Err)
	s.Equal(StatusDone, result.Status)
	s.Require().Len(result.Artifacts, 2)
	s.NotNil(result.Artifact(ArtifactWebp))
	s.NotNil(result.Artifact(ArtifactAvif))
	s.Nil(result.Artifact(ArtifactResizedOriginal))
	s.True(strings.HasPrefix(result.Placeholder, "data:image/jpeg;base64,"))
	s.NotEmpty(result.Blurhash)
	s.Equal(64, result.Width)
	s.Equal(48, result.Height)

	for _, a := range result.Artifacts {
		s.True(strings.HasPrefix(a.VirtualPath, "/outputs/holiday_photo-"), a.VirtualPath)
		s.Same(item, a.SourceItem)
		test_internals.AssertImageSize(s.T(), s.readArtifact(a), 64, 48)
	}
	s.True(strings.HasSuffix(result.Artifact(ArtifactWebp).VirtualPath, ".webp"))
	s.True(strings.HasSuffix(result.Artifact(ArtifactAvif).VirtualPath, ".avif"))
	s.Equal("image/webp", result.Artifact(ArtifactWebp).ContentType)
	s.Equal(2, s.registry.Len())
}

func (s *ConverterSuite) TestImageExactResize() {
	item := s.stage("square.jpg", common.KindImage, test_internals.MakeTestImage(s.T(), 50, 50, imaging.JPEG))
	result := s.converter.Run(s.ctx, item, options.ImageConfig{Width: 200, Height: 100, Quality: 80})

	s.Require().NoError(result.Err)
	s.Require().Len(result.Artifacts, 3)
	resizedOriginal := result.Artifact(ArtifactResizedOriginal)
	s.Require().NotNil(resizedOriginal)
	s.True(strings.HasSuffix(resizedOriginal.VirtualPath, "-resized.jpg"), resizedOriginal.VirtualPath)
	s.Equal("image/jpeg", resizedOriginal.ContentType)

	b := s.readArtifact(resizedOriginal)
	f, err := images.Detect(b)
	s.Require().NoError(err)
	s.Equal(images.FormatJPEG, f)
	test_internals.AssertImageSize(s.T(), b, 200, 100)
	test_internals.AssertImageSize(s.T(), s.readArtifact(result.Artifact(ArtifactWebp)), 200, 100)
	s.Equal(200, result.Width)
	s.Equal(100, result.Height)
}

func (s *ConverterSuite) TestImageDerivedHeight() {
	item := s.stage("wide.png", common.KindImage, test_internals.MakeTestImage(s.T(), 80, 40, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.ImageConfig{Width: 40, Quality: 80})

	s.Require().NoError(result.Err)
	test_internals.AssertImageSize(s.T(), s.readArtifact(result.Artifact(ArtifactResizedOriginal)), 40, 20)
}

func (s *ConverterSuite) TestCorruptImageFails() {
	item := s.stage("broken.png", common.KindImage, []byte("\x89PNG\r\n\x1a\nthis is not really a png"))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrCorruptMedia)
	s.Equal(common.ErrCorruptMedia, common.FailureReason(result.Err))
	s.Empty(result.Artifacts)
	s.Empty(result.Placeholder)
	s.Equal(0, s.registry.Len())
}

func (s *ConverterSuite) TestUnsupportedImageFails() {
	item := s.stage("notes.txt", common.KindImage, []byte("hello world, not an image"))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrUnsupportedMedia)
}

func (s *ConverterSuite) TestMismatchedConfigFails() {
	item := s.stage("a.png", common.KindImage, test_internals.MakeTestImage(s.T(), 4, 4, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.DefaultAudioConfig())
	s.Equal(StatusFailed, result.Status)

	s.ErrorIs(result.Err, common.ErrInternal)

	result = s.converter.Run(s.ctx, item, nil)
	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrInternal)
}

func (s *ConverterSuite) TestTimeoutDiscardsLateResults() {
	release := make(chan struct{})
	s.converter.Images = &blockingCodec{Codec: images.NewCodec(8192), release: release}
	settings := s.converter.currentSettings()
	settings.ItemTimeout = 50 * time.Millisecond
	s.converter.UpdateSettings(settings)

	item := s.stage("slow.png", common.KindImage, test_internals.MakeTestImage(s.T(), 8, 8, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())
	close(release)

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrItemTimeout)

	time.Sleep(50 * time.Millisecond)
	s.Equal(0, s.registry.Len())
	entries, err := os.ReadDir(s.space.OutputsDir)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ConverterSuite) TestPanicBecomesFailure() {
	s.converter.Images = &panickingCodec{Codec: images.NewCodec(8192)}
	item := s.stage("boom.png", common.KindImage, test_internals.MakeTestImage(s.T(), 8, 8, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorContains(result.Err, "panic")
	s.ErrorIs(result.Err, common.ErrInternal)
}

func (s *ConverterSuite) TestRegistryCollisionFails() {
	s.converter.Registry = collidingRegistrar{}
	item := s.stage("dupe.png", common.KindImage, test_internals.MakeTestImage(s.T(), 8, 8, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, registry.ErrAlreadyRegistered)
	s.ErrorIs(result.Err, common.ErrOutputFailed)
	entries, err := os.ReadDir(s.space.OutputsDir)
	s.Require().NoError(err)
	s.Empty(entries, "unregistered outputs should be removed")
}

func (s *ConverterSuite) TestFailedWriteRemovesEarlierOutputs() {
	s.converter.Outputs = &failingWriter{OutputWriter: s.space, failOn: 2}
	item := s.stage("half.png", common.KindImage, test_internals.MakeTestImage(s.T(), 8, 8, imaging.PNG))
	result := s.converter.Run(s.ctx, item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrOutputFailed)
	s.ErrorContains(result.Err, "disk full")
	s.Empty(result.Artifacts)
	s.Equal(0, s.registry.Len(), "nothing should be registered before every output is written")
	entries, err := os.ReadDir(s.space.OutputsDir)
	s.Require().NoError(err)
	s.Empty(entries, "outputs written before the failure should be removed")
}

func (s *ConverterSuite) TestCancelledItemFails() {
	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	item := s.stage("late.png", common.KindImage, test_internals.MakeTestImage(s.T(), 8, 8, imaging.PNG))
	result := s.converter.Run(s.ctx.WithContext(cctx), item, options.DefaultImageConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrBatchCancelled)
	s.ErrorIs(result.Err, context.Canceled)
	s.Equal(0, s.registry.Len())
}

func (s *ConverterSuite) TestAbandonPassesThroughRunning() {
	item := &InputItem{Name: "never.png", Kind: common.KindImage, Index: 3}
	running := testutil.ToFloat64(metrics.ConversionTransitions.WithLabelValues(string(common.KindImage), string(StatusPending), string(StatusRunning)))
	failed := testutil.ToFloat64(metrics.ConversionTransitions.WithLabelValues(string(common.KindImage), string(StatusRunning), string(StatusFailed)))

	result := Abandon(s.ctx, item, errors.New("queue closed"))

	s.Same(item, result.Item)
	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrInternal)
	s.ErrorContains(result.Err, "queue closed")
	s.NotNil(result.Artifacts)
	s.Empty(result.Artifacts)
	s.Equal(running+1, testutil.ToFloat64(metrics.ConversionTransitions.WithLabelValues(string(common.KindImage), string(StatusPending), string(StatusRunning))))
	s.Equal(failed+1, testutil.ToFloat64(metrics.ConversionTransitions.WithLabelValues(string(common.KindImage), string(StatusRunning), string(StatusFailed))))

	result = Abandon(s.ctx, item, common.NewItemError(common.ErrBatchCancelled, context.Canceled))
	s.Equal(common.ErrBatchCancelled, common.FailureReason(result.Err))
}

func (s *ConverterSuite) TestAudioPassesOptions() {
	transcoder := &recordingTranscoder{output: test_internals.MakeTestWav(s.T(), 0.5, 8000, 1)}
	s.converter.Audio = transcoder

	item := s.stage("song.wav", common.KindAudio, test_internals.MakeTestWav(s.T(), 1, 8000, 2))
	result := s.converter.Run(s.ctx, item, options.AudioConfig{Bitrate: options.Bitrate128, Channels: options.Mono, Speed: 1.5})

	s.Require().NoError(result.Err)
	s.Equal(StatusDone, result.Status)
	s.Equal(audio.TranscodeOptions{Bitrate: "128k", Channels: 1, Speed: 1.5}, transcoder.opts)
	s.Require().Len(result.Artifacts, 1)

	a := result.Artifact(ArtifactTranscodedAudio)
	s.Require().NotNil(a)
	s.True(strings.HasPrefix(a.VirtualPath, "/outputs/song-"))
	s.True(strings.HasSuffix(a.VirtualPath, ".mp3"))
	s.Equal("audio/mpeg", a.ContentType)
	s.Equal(time.Second, result.SourceDuration)
	s.Equal(500*time.Millisecond, result.OutputDuration)
	s.readArtifact(a)
}

func (s *ConverterSuite) TestCorruptAudioFails() {
	item := s.stage("noise.wav", common.KindAudio, []byte("RIFF\x00\x00\x00\x00WAVEgarbage"))
	result := s.converter.Run(s.ctx, item, options.DefaultAudioConfig())
	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrCorruptMedia)
}

func (s *ConverterSuite) TestAudioTranscodeFailure() {
	item := s.stage("song.wav", common.KindAudio, test_internals.MakeTestWav(s.T(), 0.5, 8000, 1))
	result := s.converter.Run(s.ctx, item, options.DefaultAudioConfig())

	s.Equal(StatusFailed, result.Status)
	s.ErrorIs(result.Err, common.ErrTranscodeFailed)
	s.ErrorContains(result.Err, "no output configured")
}

func (s *ConverterSuite) TestAudioWithFfmpeg() {
	tc := audio.NewTranscoder("ffmpeg")
	if err := tc.Available(); err != nil {
		s.T().Skip("ffmpeg is not available")
	}
	s.converter.Audio = tc

	item := s.stage("voice memo.wav", common.KindAudio, test_internals.MakeTestWav(s.T(), 3, 44100, 2))
	result := s.converter.Run(s.ctx, item, options.AudioConfig{Bitrate: options.Bitrate128, Channels: options.Mono, Speed: 1.5})

	s.Require().NoError(result.Err)
	s.Equal(3*time.Second, result.SourceDuration)
	s.InDelta(2.0, result.OutputDuration.Seconds(), 0.15)
	b := s.readArtifact(result.Artifact(ArtifactTranscodedAudio))
	ct, err := audio.DetectContentType(b)
	s.Require().NoError(err)
	s.Equal("audio/mpeg", ct)
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFailed, false},
		{StatusRunning, StatusDone, true},
		{StatusRunning, StatusFailed, true},
		{StatusPending, StatusDone, false},
		{StatusDone, StatusFailed, false},
		{StatusFailed, StatusRunning, false},
		{StatusDone, StatusRunning, false},
	}
	for _, c := range cases {
		if CanTransition(c.from, c.to) != c.ok {
			t.Errorf("transition %s -> %s: expected %v", c.from, c.to, c.ok)
		}
	}
}

type recordingTranscoder struct {
	opts   audio.TranscodeOptions
	output []byte
}

func (r *recordingTranscoder) Transcode(ctx context.Context, src []byte, opts audio.TranscodeOptions) ([]byte, error) {
	r.opts = opts
	if r.output == nil {
		return nil, errors.New("no output configured")
	}
	return r.output, nil
}

type blockingCodec struct {
	*images.Codec
	release chan struct{}
}

func (b *blockingCodec) Encode(ctx context.Context, src []byte, opts images.EncodeOptions) ([]byte, error) {
	<-b.release
	return b.Codec.Encode(context.Background(), src, opts)
}

type panickingCodec struct {
	*images.Codec
}

func (p *panickingCodec) Resize(ctx context.Context, src []byte, opts images.ResizeOptions) ([]byte, error) {
	panic("codec exploded")
}

func (p *panickingCodec) Encode(ctx context.Context, src []byte, opts images.EncodeOptions) ([]byte, error) {
	panic("codec exploded")
}

type failingWriter struct {
	OutputWriter
	failOn int
	writes int
}

func (f *failingWriter) WriteOutput(fileName string, data []byte) (string, error) {
	f.writes++
	if f.writes == f.failOn {
		return "", errors.New("disk full")
	}
	return f.OutputWriter.WriteOutput(fileName, data)
}

type collidingRegistrar struct{}

func (collidingRegistrar) Register(virtualPath string, absoluteLocation string) error {
	return registry.ErrAlreadyRegistered
}
