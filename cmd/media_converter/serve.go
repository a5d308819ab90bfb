package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/api/webserver"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/logging"
	"github.com/t2bot/media-converter/common/runtime"
	"github.com/t2bot/media-converter/common/version"
	"github.com/t2bot/media-converter/metrics"
)

func runServer() error {
	err := logging.Setup(logging.OptionsFromConfig(config.Get().General))
	if err != nil {
		return err
	}

	if config.Get().Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err = sentry.Init(sentry.ClientOptions{
			Dsn:         config.Get().Sentry.Dsn,
			Environment: config.Get().Sentry.Environment,
			Debug:       config.Get().Sentry.Debug,
			Release:     fmt.Sprintf("%s-%s", version.Version, version.GitCommit),
		})
		if err != nil {
			return err
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	logrus.Info("Starting up...")
	services := runtime.RunStartupSequence()

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer watcher.Close()
	setupReloads()

	logrus.Info("Starting media converter...")
	metrics.Init()
	web := webserver.Init(services)

	// Set up a function to stop everything
	stopAllButWeb := func() {
		logrus.Info("Stopping reload watchers...")
		stopReloads()

		logrus.Info("Stopping metrics...")
		metrics.Stop()
	}

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	selfStop := false
	go func() {
		<-stop
		selfStop = true

		logrus.Warn("Stop signal received")
		stopAllButWeb()

		logrus.Info("Stopping web server...")
		webserver.Stop()
	}()

	// Wait for the web server to exit nicely
	web.Wait()

	// Stop everything else if we have to
	if !selfStop {
		stopAllButWeb()
	}

	logrus.Info("Stopping conversion workers...")
	runtime.Shutdown()

	// For debugging
	logrus.Info("Goodbye!")
	return nil
}
