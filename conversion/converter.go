package conversion

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/metrics"
	"github.com/t2bot/media-converter/naming"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/registry"
	"github.com/t2bot/media-converter/util/ids"
)

type Settings struct {
	ItemTimeout time.Duration

	PlaceholderWidth   int
	PlaceholderQuality int
	PlaceholderBlur    float64

	Blurhash            bool
	BlurhashXComponents int
	BlurhashYComponents int
}

func SettingsFromConfig(c *config.MainRepoConfig) Settings {
	return Settings{
		ItemTimeout:         time.Duration(c.Conversion.ItemTimeoutSeconds) * time.Second,
		PlaceholderWidth:    c.Images.Placeholder.Width,
		PlaceholderQuality:  c.Images.Placeholder.Quality,
		PlaceholderBlur:     c.Images.Placeholder.Blur,
		Blurhash:            c.Images.Blurhash.Enabled,
		BlurhashXComponents: c.Images.Blurhash.XComponents,
		BlurhashYComponents: c.Images.Blurhash.YComponents,
	}
}

// Converter runs the conversion of single items. It holds no per-item state and is shared by
// every worker.
type Converter struct {
	Images   ImageCodec
	Audio    AudioTranscoder
	Outputs  OutputWriter
	Registry Registrar
	Settings Settings

	settingsLock sync.RWMutex
}

// UpdateSettings applies reloaded settings. Items already running keep what they started with.
func (c *Converter) UpdateSettings(s Settings) {
	c.settingsLock.Lock()
	defer c.settingsLock.Unlock()
	c.Settings = s
}

func (c *Converter) currentSettings() Settings {
	c.settingsLock.RLock()
	defer c.settingsLock.RUnlock()
	return c.Settings
}

// pendingOutput is an encoded artifact waiting to be written and registered.
type pendingOutput struct {
	kind        ArtifactKind
	suffix      string
	extension   string
	contentType string
	data        []byte
}

// Run converts one item. It always returns a terminal result; failures are reported through
// the result rather than returned.
func (c *Converter) Run(ctx rcontext.RequestContext, item *InputItem, cfg options.ConversionConfig) (result *ItemResult) {
	started := time.Now()
	ctx = ctx.LogWithFields(logrus.Fields{
		"item":     item.Index,
		"itemName": item.Name,
		"itemKind": item.Kind,
	})
	state := newStateTracker(item.Kind, ctx.Log)
	result = &ItemResult{Item: item, Status: StatusPending, Artifacts: make([]*Artifact, 0)}

	defer func() {
		if r := recover(); r != nil {
			ctx.Log.Errorf("Panic converting item: %v\n%s", r, debug.Stack())
			err := fmt.Errorf("panic: %v", r)
			sentry.CaptureException(err)
			failItem(state, result, err)
		}
		metrics.ConversionsFinished.WithLabelValues(string(item.Kind), string(result.Status)).Inc()
		metrics.ConversionTime.WithLabelValues(string(item.Kind), string(result.Status)).Observe(time.Since(started).Seconds())
	}()

	if err := state.moveTo(StatusRunning); err != nil {
		ctx.Log.Error(err)
		failItem(state, result, err)
		return result
	}
	result.Status = StatusRunning

	settings := c.currentSettings()
	if settings.ItemTimeout > 0 {
		tctx, cancel := newTimeoutContext(ctx, settings.ItemTimeout)
		defer cancel()
		ctx = tctx
	}

	var err error
	if cfg == nil {
		err = errors.New("no configuration resolved for item")
	} else if cfg.Kind() != item.Kind {
		err = fmt.Errorf("configuration for %s applied to %s item", cfg.Kind(), item.Kind)
	} else {
		switch conf := cfg.(type) {
		case options.ImageConfig:
			err = c.runImage(ctx, item, conf, settings, result)
		case options.AudioConfig:
			err = c.runAudio(ctx, item, conf, result)
		default:
			err = fmt.Errorf("unexpected configuration type %T", cfg)
		}
	}

	if err != nil {
		ctx.Log.Warn("Conversion failed: ", err)
		result.Artifacts = make([]*Artifact, 0)
		failItem(state, result, err)
		return result
	}

	if err = state.moveTo(StatusDone); err != nil {
		ctx.Log.Error(err)
		failItem(state, result, err)
		return result
	}
	result.Status = StatusDone
	ctx.Log.Infof("Converted item into %d artifacts in %s", len(result.Artifacts), time.Since(started))
	return result
}

func failItem(state *stateTracker, result *ItemResult, err error) {
	err = classify(common.ErrInternal, err)
	if state.status.Terminal() {
		// Already reported
		if result.Err == nil {
			result.Err = err
		}
		return
	}
	_ = state.moveTo(StatusFailed)
	result.Status = StatusFailed
	result.Err = err
}

// classify tags err with a client facing reason unless it already carries one.
func classify(reason error, err error) error {
	if err == nil || common.FailureReason(err) != nil {
		return err
	}
	return common.NewItemError(reason, err)
}

// Abandon fails an item that never reached a worker. The item still passes through running so
// every failed item takes the same path through the state machine.
func Abandon(ctx rcontext.RequestContext, item *InputItem, err error) *ItemResult {
	log := ctx.Log.WithFields(logrus.Fields{
		"item":     item.Index,
		"itemName": item.Name,
		"itemKind": item.Kind,
	})
	state := newStateTracker(item.Kind, log)
	result := &ItemResult{Item: item, Status: StatusPending, Artifacts: make([]*Artifact, 0)}
	if moveErr := state.moveTo(StatusRunning); moveErr != nil {
		log.Error(moveErr)
	} else {
		result.Status = StatusRunning
	}
	failItem(state, result, err)
	log.Warn("Item abandoned: ", result.Err)
	metrics.ConversionsFinished.WithLabelValues(string(item.Kind), string(result.Status)).Inc()
	return result
}

// commit writes every output and only then registers them. On failure the written files are
// removed so a failed item leaves nothing on disk. Nothing is written once the context is done.
func (c *Converter) commit(ctx rcontext.RequestContext, item *InputItem, outputs []pendingOutput) ([]*Artifact, error) {
	if err := contextError(ctx, "commit"); err != nil {
		return nil, err
	}

	token, err := ids.NewToken()
	if err != nil {
		return nil, classify(common.ErrOutputFailed, errors.Wrap(err, "generating output token"))
	}
	base := naming.BaseName(item.Name)

	locations := make([]string, 0, len(outputs))
	removeWritten := func() {
		for _, location := range locations {
			c.Outputs.RemoveOutput(location)
		}
	}

	fileNames := make([]string, len(outputs))
	for i, o := range outputs {
		fileNames[i] = fmt.Sprintf("%s-%s%s.%s", base, token, o.suffix, o.extension)
		location, err := c.Outputs.WriteOutput(fileNames[i], o.data)
		if err != nil {
			removeWritten()
			return nil, classify(common.ErrOutputFailed, errors.Wrapf(err, "writing %s", o.kind))
		}
		locations = append(locations, location)
	}
	if err = contextError(ctx, "commit"); err != nil {
		removeWritten()
		return nil, err
	}

	artifacts := make([]*Artifact, 0, len(outputs))
	for i, o := range outputs {
		virtualPath := registry.VirtualPath(fileNames[i])
		if err = c.Registry.Register(virtualPath, locations[i]); err != nil {
			// Entries registered before this one are permanent but never handed out, and resolve to
			// a missing file once the outputs are removed.
			removeWritten()
			if errors.Is(err, registry.ErrAlreadyRegistered) {
				ctx.Log.Errorf("Output %s collided with an existing registration", virtualPath)
				sentry.CaptureException(err)
			}
			return nil, classify(common.ErrOutputFailed, errors.Wrapf(err, "registering %s", virtualPath))
		}

		size := int64(len(o.data))
		metrics.ArtifactBytes.WithLabelValues(string(o.kind)).Add(float64(size))
		ctx.Log.Debugf("Wrote %s artifact %s (%s)", o.kind, virtualPath, humanize.Bytes(uint64(size)))
		artifacts = append(artifacts, &Artifact{
			Kind:        o.kind,
			VirtualPath: virtualPath,
			SizeBytes:   size,
			ContentType: o.contentType,
			SourceItem:  item,
		})
	}
	return artifacts, nil
}

func readContent(item *InputItem) ([]byte, error) {
	if item.Content == nil {
		return nil, errors.New("item has no content")
	}
	b, err := item.Content.Bytes()
	if err != nil {
		return nil, errors.Wrap(err, "reading staged upload")
	}
	if len(b) == 0 {
		return nil, errors.Wrap(common.ErrUnsupportedMedia, "empty file")
	}
	return b, nil
}
