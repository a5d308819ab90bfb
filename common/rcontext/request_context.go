package rcontext

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common/config"
)

type contextKey string

const (
	keyLogger  contextKey = "mc.logger"
	keyConfig  contextKey = "mc.config"
	keyRequest contextKey = "mc.request"
)

func Initial() RequestContext {
	return New(context.Background(), logrus.WithFields(logrus.Fields{"nocontext": true}), config.Get())
}

func New(ctx context.Context, log *logrus.Entry, cfg *config.MainRepoConfig) RequestContext {
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  cfg,
		Request: nil,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log     *logrus.Entry          // mc.logger
	Config  *config.MainRepoConfig // mc.config
	Request *http.Request          // mc.request
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, keyLogger, c.Log)
	c.Context = context.WithValue(c.Context, keyConfig, c.Config)
	c.Context = context.WithValue(c.Context, keyRequest, c.Request)
	return c
}

func (c RequestContext) WithRequest(r *http.Request) RequestContext {
	c.Request = r
	c.Context = context.WithValue(c.Context, keyRequest, r)
	return c
}

// WithContext swaps the underlying context (usually a derived one with a deadline) while keeping
// the logger and config.
func (c RequestContext) WithContext(ctx context.Context) RequestContext {
	return RequestContext{
		Context: ctx,
		Log:     c.Log,
		Config:  c.Config,
		Request: c.Request,
	}.populate()
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, keyLogger, log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Config:  c.Config,
		Request: c.Request,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}
