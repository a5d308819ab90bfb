package v1

import (
	"net/http"

	"github.com/t2bot/media-converter/api"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/common/version"
)

type HealthzResponse struct {
	OK                bool   `json:"ok"`
	Status            string `json:"status"`
	RegisteredOutputs int    `json:"registered_outputs"`
}

func (s *Services) GetHealthz(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return &api.DoNotCacheResponse{
		Payload: &HealthzResponse{
			OK:                true,
			Status:            "Probably not dead",
			RegisteredOutputs: s.Registry.Len(),
		},
	}
}

func GetVersion(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return &api.DoNotCacheResponse{
		Payload: version.Info(),
	}
}
