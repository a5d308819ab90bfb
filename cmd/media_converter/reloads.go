package main

import (
	"github.com/t2bot/media-converter/api/webserver"
	"github.com/t2bot/media-converter/common/globals"
	"github.com/t2bot/media-converter/common/runtime"
	"github.com/t2bot/media-converter/metrics"
	"github.com/t2bot/media-converter/pool"
)

func setupReloads() {
	reloadOnChan(globals.WebReloadChan, webserver.Reload)
	reloadOnChan(globals.MetricsReloadChan, metrics.Reload)
	reloadOnChan(globals.PoolReloadChan, pool.AdjustSize)
	reloadOnChan(globals.ConversionReloadChan, runtime.ReloadConversionSettings)
}

func stopReloads() {
	// send stop signal to reload fns
	globals.WebReloadChan <- false
	globals.MetricsReloadChan <- false
	globals.PoolReloadChan <- false
	globals.ConversionReloadChan <- false
}

func reloadOnChan(reloadChan chan bool, reload func()) {
	go func() {
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				reload()
			} else {
				return // received stop
			}
		}
	}()
}
