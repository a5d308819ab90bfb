package pool

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common/logging"
)

type Queue struct {
	name string
	pool *ants.Pool
}

func NewQueue(workers int, name string) (*Queue, error) {
	if workers <= 0 {
		workers = 1
	}
	p, err := ants.NewPool(workers, ants.WithOptions(ants.Options{
		ExpiryDuration:   1 * time.Minute, // worker lifespan when unused
		PreAlloc:         false,
		MaxBlockingTasks: 0, // no limit on tasks we can submit
		Nonblocking:      false,
		PanicHandler: func(err interface{}) {
			logrus.Errorf("Panic from internal queue %s", name)
			logrus.Error(err)
			//goland:noinspection GoTypeAssertionOnErrors
			if e, ok := err.(error); ok {
				sentry.CaptureException(e)
			}
		},
		Logger:       &logging.PoolLogger{Queue: name},
		DisablePurge: false,
	}))
	if err != nil {
		return nil, err
	}
	return &Queue{name: name, pool: p}, nil
}

// Schedule submits the task, blocking while all workers are busy. Fails once the queue is released.
func (p *Queue) Schedule(task func()) error {
	return p.pool.Submit(task)
}

func (p *Queue) Tune(workers int) {
	if workers <= 0 {
		workers = 1
	}
	logrus.Infof("Resizing %s queue to %d workers", p.name, workers)
	p.pool.Tune(workers)
}

func (p *Queue) Running() int {
	return p.pool.Running()
}

func (p *Queue) Cap() int {
	return p.pool.Cap()
}

func (p *Queue) Release() {
	p.pool.Release()
}
