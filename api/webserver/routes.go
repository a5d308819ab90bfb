package webserver

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/api"
	v1 "github.com/t2bot/media-converter/api/v1"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/registry"
)

type route struct {
	method  string
	handler handler
}

func buildRoutes(services *v1.Services, cfg func() *config.MainRepoConfig) http.Handler {
	rtr := mux.NewRouter()
	counter := &requestCounter{}
	newHandler := func(h func(r *http.Request, ctx rcontext.RequestContext) interface{}, action string) handler {
		return handler{h: h, action: action, reqCounter: counter, config: cfg}
	}

	optionsHandler := newHandler(api.EmptyResponseHandler, "options_request")
	convertImagesHandler := newHandler(services.ConvertImages, "convert_images")
	convertAudioHandler := newHandler(services.ConvertAudio, "convert_audio")
	archiveHandler := newHandler(services.Archive, "archive")
	downloadHandler := newHandler(services.DownloadOutput, "download_output")
	versionHandler := newHandler(v1.GetVersion, "version")
	healthzHandler := newHandler(services.GetHealthz, "healthz")

	routes := map[string]route{
		"/api/v1/images/convert":                route{"POST", convertImagesHandler},
		"/api/v1/audio/convert":                 route{"POST", convertAudioHandler},
		"/api/v1/archive":                       route{"POST", archiveHandler},
		"/api/v1/version":                       route{"GET", versionHandler},
		registry.VirtualPrefix + "{name:[^/]+}": route{"GET", downloadHandler},
	}

	for routePath, route := range routes {
		logrus.Debug("Registering route: " + route.method + " " + routePath)
		rtr.Handle(routePath, route.handler).Methods(route.method)
		rtr.Handle(routePath, optionsHandler).Methods("OPTIONS")

		// This is a hack to a ensure that trailing slashes also match the routes correctly
		rtr.Handle(routePath+"/", route.handler).Methods(route.method)
		rtr.Handle(routePath+"/", optionsHandler).Methods("OPTIONS")
	}

	// Health check endpoints
	rtr.Handle("/healthz", healthzHandler).Methods("OPTIONS", "GET")

	notFound := newHandler(api.NotFoundHandler, "not_found")
	notFound.invalid = true
	methodNotAllowed := newHandler(api.MethodNotAllowedHandler, "method_not_allowed")
	methodNotAllowed.invalid = true
	rtr.NotFoundHandler = notFound
	rtr.MethodNotAllowedHandler = methodNotAllowed

	return rtr
}
