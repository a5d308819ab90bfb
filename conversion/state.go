package conversion

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/media-converter/common"
	"github.com/t2bot/media-converter/metrics"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusRunning},
	StatusRunning: {StatusDone, StatusFailed},
}

func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

func CanTransition(from Status, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type stateTracker struct {
	kind   common.Kind
	status Status
	log    *logrus.Entry
}

func newStateTracker(kind common.Kind, log *logrus.Entry) *stateTracker {
	return &stateTracker{kind: kind, status: StatusPending, log: log}
}

func (t *stateTracker) moveTo(to Status) error {
	if !CanTransition(t.status, to) {
		return fmt.Errorf("invalid state transition from %s to %s", t.status, to)
	}
	t.log.Debugf("State %s -> %s", t.status, to)
	metrics.ConversionTransitions.WithLabelValues(string(t.kind), string(t.status), string(to)).Inc()
	t.status = to
	return nil
}
