package runtime

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	v1 "github.com/t2bot/media-converter/api/v1"
	"github.com/t2bot/media-converter/archival"
	"github.com/t2bot/media-converter/common/config"
	"github.com/t2bot/media-converter/common/version"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/metrics"
	"github.com/t2bot/media-converter/pipelines/pipeline_batch"
	"github.com/t2bot/media-converter/pool"
	"github.com/t2bot/media-converter/registry"
	"github.com/t2bot/media-converter/scratch"
	"github.com/t2bot/media-converter/transcoding/audio"
	"github.com/t2bot/media-converter/transcoding/images"
	"github.com/t2bot/media-converter/transcoding/images/vipsenc"
)

// Converter is the shared converter built by RunStartupSequence, kept for settings reloads.
var Converter *conversion.Converter

func RunStartupSequence() *v1.Services {
	version.Print(true)
	cfg := config.Get()

	logrus.Info("Preparing scratch space...")
	space, err := scratch.Init(cfg.Scratch.UploadsPath, cfg.Scratch.OutputsPath)
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	logrus.Infof("Uploads: %s", space.UploadsDir)
	logrus.Infof("Outputs: %s", space.OutputsDir)

	logrus.Info("Starting image encoders...")
	vipsenc.Startup(cfg.Conversion.NumWorkers)

	logrus.Info("Starting conversion workers...")
	pool.Init()

	services, converter := NewServices(cfg, space, pool.ConversionQueue)
	Converter = converter

	metrics.OnBeforeMetricsRequested(func() {
		metrics.RegistryEntries.Set(float64(services.Registry.Len()))
		metrics.QueueRunningWorkers.WithLabelValues("conversions").Set(float64(pool.ConversionQueue.Running()))
	})

	return services
}

// NewServices wires the conversion stack over an acquired scratch space and queue.
func NewServices(cfg *config.MainRepoConfig, space *scratch.Space, queue pipeline_batch.Scheduler) (*v1.Services, *conversion.Converter) {
	transcoder := audio.NewTranscoder(cfg.Audio.FfmpegPath)
	if err := transcoder.Available(); err != nil {
		logrus.Warn("ffmpeg is not available - audio conversions will fail: ", err)
	}

	reg := registry.New()
	converter := &conversion.Converter{
		Images:   images.NewCodec(cfg.Images.MaxDimension),
		Audio:    transcoder,
		Outputs:  space,
		Registry: reg,
		Settings: conversion.SettingsFromConfig(cfg),
	}

	return &v1.Services{
		Space:    space,
		Pipeline: pipeline_batch.New(queue, converter),
		Registry: reg,
		Archives: archival.NewBuilder(reg),
	}, converter
}

func ReloadConversionSettings() {
	if Converter != nil {
		Converter.UpdateSettings(conversion.SettingsFromConfig(config.Get()))
	}
}

func Shutdown() {
	pool.Drain()
	vipsenc.Shutdown()
}
