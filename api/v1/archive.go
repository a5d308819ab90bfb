package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
)

const maxArchiveRequestBytes = 1024 * 1024

type ArchiveRequest struct {
	Files []string `json:"files"`
}

func (s *Services) Archive(r *http.Request, rctx rcontext.RequestContext) interface{} {
	req := &ArchiveRequest{}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxArchiveRequestBytes)).Decode(req); err != nil {
		rctx.Log.Debug("Bad archive request: ", err)
		return api.BadRequest("expected a JSON body with a files array")
	}

	stream, count, err := s.Archives.BuildArchive(rctx, req.Files)
	if err != nil {
		if errors.Is(err, common.ErrEmptyArchiveRequest) {
			return api.BadRequest(err.Error())
		}
		if errors.Is(err, common.ErrNoValidArchiveEntries) {
			return &api.ErrorResponse{Code: common.ErrCodeNotFound, Message: err.Error(), InternalCode: common.ErrCodeNotFound}
		}
		rctx.Log.Error("Unexpected error building archive: ", err)
		return api.InternalServerError("unexpected error building archive")
	}

	rctx.Log.Infof("Archive contains %d of %d requested files", count, len(req.Files))
	return &api.DownloadResponse{
		ContentType:       "application/zip",
		Filename:          rctx.Config.Archives.FileName,
		Data:              stream,
		TargetDisposition: "attachment",
	}
}
