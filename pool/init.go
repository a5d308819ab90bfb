package pool

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common/config"
)

var ConversionQueue *Queue

func Init() {
	var err error
	if ConversionQueue, err = NewQueue(config.Get().Conversion.NumWorkers, "conversions"); err != nil {
		sentry.CaptureException(err)
		logrus.Error("Error setting up conversions queue")
		logrus.Fatal(err)
	}
}

func AdjustSize() {
	ConversionQueue.Tune(config.Get().Conversion.NumWorkers)
}

func Drain() {
	ConversionQueue.Release()
}
