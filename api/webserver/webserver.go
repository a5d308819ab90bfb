package webserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/didip/tollbooth"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/sirupsen/logrus"
	v1 "github.com/t2bot/media-converter/api/v1"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/limits"
)

var srv *http.Server
var waitGroup = &sync.WaitGroup{}
var reload = false
var services *v1.Services

func Init(svc *v1.Services) *sync.WaitGroup {
	services = svc
	address := net.JoinHostPort(config.Get().General.BindAddress, strconv.Itoa(config.Get().General.Port))

	handler := buildRoutes(services, config.Get)

	if config.Get().RateLimit.Enabled {
		logrus.Debug("Enabling rate limit")
		handler = tollbooth.LimitHandler(limits.NewRequestLimiter(config.Get().RateLimit), handler)
	}

	// Bound here so Sentry sees everything, including rate limited requests
	sentryHandler := sentryhttp.New(sentryhttp.Options{})
	srv = &http.Server{Addr: address, Handler: sentryHandler.Handle(handler)}
	if !reload {
		waitGroup.Add(1)
	}
	reload = false

	go func(srv *http.Server) {
		//goland:noinspection HttpUrlsUsage
		logrus.WithField("address", address).Info("Started up. Listening at http://" + address)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			logrus.Fatal(err)
		}

		// Only notify the main thread that we're done if we're actually done
		if !reload {
			waitGroup.Done()
		}
	}(srv)

	return waitGroup
}

func Reload() {
	reload = true

	// Stop the server first
	Stop()

	// Reload the web server, ignoring the wait group (because we don't care to wait here)
	Init(services)
}

func Stop() {
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Error("Error shutting down web server: ", err)
		}
		srv = nil
	}
}
