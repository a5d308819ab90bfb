package conversion

import (
	"context"
	"time"

	"github.com/t2bot/media-converter/common/rcontext"
)

func newTimeoutContext(ctx rcontext.RequestContext, timeout time.Duration) (rcontext.RequestContext, context.CancelFunc) {
	tctx, cancel := context.WithTimeout(ctx.Context, timeout)
	return ctx.WithContext(tctx), cancel
}
