package config

import (
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common/globals"
)

func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}

	err = watcher.Add(Path)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in config watcher:", err)
			}
		}
	}()

	return watcher
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring")
		logrus.Error(err)
		return
	}

	logrus.Info("Applying reloaded config live")
	set(configNew)

	bindAddressChange := configNew.General.BindAddress != configNow.General.BindAddress
	bindPortChange := configNew.General.Port != configNow.General.Port
	forwardAddressChange := configNew.General.TrustAnyForward != configNow.General.TrustAnyForward
	rateLimitChange := configNew.RateLimit != configNow.RateLimit
	if bindAddressChange || bindPortChange || forwardAddressChange || rateLimitChange {
		logrus.Warn("Webserver configuration changed - remounting")
		globals.WebReloadChan <- true
	}

	if configNew.Metrics != configNow.Metrics {
		logrus.Warn("Metrics configuration changed - remounting")
		globals.MetricsReloadChan <- true
	}

	if configNew.Conversion.NumWorkers != configNow.Conversion.NumWorkers {
		logrus.Warn("Worker count changed - resizing conversion queue")
		globals.PoolReloadChan <- true
	}

	conversionNow := configNow.Conversion
	conversionNow.NumWorkers = configNew.Conversion.NumWorkers
	if conversionNow != configNew.Conversion || configNew.Images != configNow.Images {
		logrus.Warn("Conversion settings changed - applying to new items")
		globals.ConversionReloadChan <- true
	}

	if configNew.Scratch != configNow.Scratch {
		logrus.Warn("Scratch directories changed - restart the converter to apply changes")
	}
	if configNew.General.LogDirectory != configNow.General.LogDirectory {
		logrus.Warn("Log configuration changed - restart the converter to apply changes")
	}
}
