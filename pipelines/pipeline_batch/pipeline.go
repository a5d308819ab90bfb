package pipeline_batch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/common/rcontext"
	"github.com/t2bot/media-converter/conversion"
	"github.com/t2bot/media-converter/options"
	"github.com/t2bot/media-converter/util/ids"
)

type Scheduler interface {
	Schedule(task func()) error
}

type Runner interface {
	Run(ctx rcontext.RequestContext, item *conversion.InputItem, cfg options.ConversionConfig) *conversion.ItemResult
}

type BatchResult struct {
	BatchId   string
	Items     []*conversion.ItemResult // in submission order
	Succeeded int
	Failed    int
}

type Pipeline struct {
	Queue     Scheduler
	Converter Runner
}

func New(queue Scheduler, converter Runner) *Pipeline {
	return &Pipeline{Queue: queue, Converter: converter}
}

// Execute converts every item on the queue and waits for all of them. A failing item never fails
// the batch; only an empty batch is an error.
func (p *Pipeline) Execute(ctx rcontext.RequestContext, items []*conversion.InputItem, resolved options.Resolved) (*BatchResult, error) {
	if len(items) == 0 {
		return nil, common.ErrNoFiles
	}

	batchId := ids.NewBatchId()
	ctx = ctx.LogWithFields(logrus.Fields{"batchId": batchId})
	ctx.Log.Infof("Starting batch of %d items", len(items))
	started := time.Now()

	results := make([]*conversion.ItemResult, len(items))
	wg := &sync.WaitGroup{}
	for i, item := range items {
		i := i
		item := item
		item.Index = i
		cfg := resolved[item]

		if err := ctx.Err(); err != nil {
			results[i] = conversion.Abandon(ctx, item, common.NewItemError(common.ErrBatchCancelled, fmt.Errorf("batch cancelled: %w", err)))
			release(ctx, item)
			continue
		}

		wg.Add(1)
		err := p.Queue.Schedule(func() {
			defer wg.Done()
			defer release(ctx, item)
			results[i] = p.Converter.Run(ctx, item, cfg)
		})
		if err != nil {
			wg.Done()
			ctx.Log.Error("Failed to schedule item: ", err)
			results[i] = conversion.Abandon(ctx, item, common.NewItemError(common.ErrInternal, fmt.Errorf("scheduling conversion: %w", err)))
			release(ctx, item)
		}
	}
	wg.Wait()

	batch := &BatchResult{BatchId: batchId, Items: results}
	for i, r := range results {
		if r == nil {
			// A worker died without reporting
			r = conversion.Abandon(ctx, items[i], common.NewItemError(common.ErrInternal, errors.New("conversion produced no result")))
			results[i] = r
		}
		if r.Status == conversion.StatusDone {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	ctx.Log.Infof("Batch finished in %s: %d succeeded, %d failed", time.Since(started), batch.Succeeded, batch.Failed)
	return batch, nil
}

func release(ctx rcontext.RequestContext, item *conversion.InputItem) {
	if item.Content == nil {
		return
	}
	if err := item.Content.Release(); err != nil {
		ctx.Log.Warnf("Failed to release staged upload for item %d: %s", item.Index, err)
	}
}
