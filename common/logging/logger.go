package logging

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common/config"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"
const logFileName = "media_converter.log"
const defaultRetention = 14 * 24 * time.Hour

type Options struct {
	// Directory for rotated log files. Empty or "-" logs to Output only.
	Directory string
	Colors    bool
	Json      bool
	Level     string

	// Output receives every line. Defaults to stdout; the CLI uses stderr so its own output stays clean.
	Output    io.Writer
	Retention time.Duration
}

func OptionsFromConfig(c config.GeneralConfig) Options {
	return Options{
		Directory: c.LogDirectory,
		Colors:    c.LogColors,
		Json:      c.JsonLogs,
		Level:     c.LogLevel,
	}
}

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

func newFormatter(json bool, colors bool) logrus.Formatter {
	if json {
		return &utcFormatter{&logrus.JSONFormatter{TimestampFormat: timestampFormat}}
	}
	return &utcFormatter{&logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		ForceColors:      colors,
		DisableColors:    !colors,
		QuoteEmptyFields: true,
	}}
}

// Setup configures the global logrus logger. Conversions log through entries derived from it.
func Setup(opts Options) error {
	if opts.Level == "" {
		opts.Level = "info"
	}
	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return err
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Retention <= 0 {
		opts.Retention = defaultRetention
	}

	formatter := newFormatter(opts.Json, opts.Colors)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(opts.Output)

	if opts.Directory == "" || opts.Directory == "-" {
		return nil
	}
	if err = os.MkdirAll(opts.Directory, os.ModePerm); err != nil {
		return err
	}

	logFile := path.Join(opts.Directory, logFileName)
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d%H%M",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge(opts.Retention),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return err
	}

	// Files always get JSON so they can be shipped without parsing colour codes
	logrus.AddHook(lfshook.NewHook(lfshook.WriterMap{
		logrus.DebugLevel: writer,
		logrus.InfoLevel:  writer,
		logrus.WarnLevel:  writer,
		logrus.ErrorLevel: writer,
		logrus.FatalLevel: writer,
		logrus.PanicLevel: writer,
	}, newFormatter(true, false)))

	return nil
}

// PoolLogger routes worker pool chatter to the debug level, tagged with the queue name.
type PoolLogger struct {
	Queue string
}

func (l *PoolLogger) Printf(format string, v ...interface{}) {
	logrus.WithField("queue", l.Queue).Debugf(format, v...)
}
