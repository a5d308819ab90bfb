package v1

import (
	"net/http"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/registry"
)

func (s *Services) DownloadOutput(r *http.Request, rctx rcontext.RequestContext) interface{} {
	name := mux.Vars(r)["name"]
	location, ok := s.Registry.Resolve(registry.VirtualPath(name))
	if !ok {
		return api.ArtifactNotFound()
	}

	mime, err := mimetype.DetectFile(location)
	if err != nil {
		if os.IsNotExist(err) {
			rctx.Log.Warn("Registered output is missing from disk: ", location)
			return api.ArtifactNotFound()
		}
		rctx.Log.Error("Unexpected error reading output: ", err)
		return api.InternalServerError("unexpected error reading output")
	}

	f, err := os.Open(location)
	if err != nil {
		rctx.Log.Error("Unexpected error opening output: ", err)
		return api.InternalServerError("unexpected error reading output")
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		rctx.Log.Error("Unexpected error reading output: ", err)
		return api.InternalServerError("unexpected error reading output")
	}

	return &api.DownloadResponse{
		ContentType:       mime.String(),
		Filename:          name,
		SizeBytes:         stat.Size(),
		Data:              f,
		TargetDisposition: "infer",
	}
}
