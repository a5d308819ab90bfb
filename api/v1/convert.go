package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/metrics"
	"github.com/t2bot/media-converter/naming"
	"github.com/t2bot/media-converter/options"
)

const maxOptionsBytes = 1024 * 1024

func (s *Services) ConvertImages(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return s.convert(r, rctx, common.KindImage)
}

func (s *Services) ConvertAudio(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return s.convert(r, rctx, common.KindAudio)
}

func (s *Services) convert(r *http.Request, rctx rcontext.RequestContext, kind common.Kind) interface{} {
	rctx = rctx.LogWithFields(logrus.Fields{"batchKind": kind})

	items, rawOptions, err := s.readUpload(r, rctx, kind)
	if err != nil {
		return uploadError(rctx, err)
	}
	metrics.BatchesSubmitted.WithLabelValues(string(kind)).Inc()

	optionItems := make([]options.Item, len(items))
	for i, item := range items {
		optionItems[i] = item
	}
	resolved := options.NewResolver(rctx.Config.Images.MaxDimension).Resolve(options.Parse(rawOptions), optionItems)

	batch, err := s.Pipeline.Execute(rctx, items, resolved)
	if err != nil {
		releaseAll(rctx, items)
		return uploadError(rctx, err)
	}
	return &api.DoNotCacheResponse{Payload: newBatchResponse(batch)}
}

// readUpload stages every file part of the multipart body. On error nothing stays staged.
func (s *Services) readUpload(r *http.Request, rctx rcontext.RequestContext, kind common.Kind) ([]*conversion.InputItem, []byte, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, errBadForm
	}

	limits := rctx.Config.Conversion
	items := make([]*conversion.InputItem, 0)
	var rawOptions []byte
	fail := func(err error) ([]*conversion.InputItem, []byte, error) {
		releaseAll(rctx, items)
		return nil, nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fail(errBadForm)
		}

		switch part.FormName() {
		case "options":
			rawOptions, err = io.ReadAll(io.LimitReader(part, maxOptionsBytes))
			if err != nil {
				_ = part.Close()
				return fail(errBadForm)
			}
		case "files", "files[]", "file":
			if part.FileName() == "" {
				break
			}
			if limits.MaxFilesPerBatch > 0 && len(items) >= limits.MaxFilesPerBatch {
				_ = part.Close()
				return fail(common.ErrTooManyFiles)
			}
			staged, err := s.Space.Stage(part, limits.MaxFileSizeBytes)
			if err != nil {
				_ = part.Close()
				return fail(err)
			}
			item := &conversion.InputItem{
				Index:     len(items),
				Name:      naming.RepairEncoding(part.FileName()),
				Kind:      kind,
				SizeBytes: staged.Size,
				Content:   staged,
			}
			rctx.Log.Debugf("Staged %s (%s)", item.Name, humanize.Bytes(uint64(staged.Size)))
			items = append(items, item)
		}
		_ = part.Close()
	}

	if len(items) == 0 {
		return fail(common.ErrNoFiles)
	}
	return items, rawOptions, nil
}

var errBadForm = errors.New("expected a multipart/form-data body")

func uploadError(rctx rcontext.RequestContext, err error) interface{} {
	switch {
	case errors.Is(err, common.ErrNoFiles):
		return api.BadRequest(err.Error())
	case errors.Is(err, common.ErrTooManyFiles):
		return api.BadRequest(err.Error())
	case errors.Is(err, errBadForm):
		return api.BadRequest(err.Error())
	case errors.Is(err, common.ErrMediaTooLarge):
		return api.RequestTooLarge(err.Error())
	}
	rctx.Log.Error("Unexpected error handling upload: ", err)
	return api.InternalServerError("unexpected error handling upload")
}

func releaseAll(rctx rcontext.RequestContext, items []*conversion.InputItem) {
	for _, item := range items {
		if item.Content == nil {
			continue
		}
		if err := item.Content.Release(); err != nil {
			rctx.Log.Warn("Failed to release staged upload: ", err)
		}
	}
}
