package webserver

import (
	"fmt"
	"sync/atomic"
)

type requestCounter struct {
	lastId uint64
}

func (c *requestCounter) GetNextId() string {
	return fmt.Sprintf("REQ-%d", atomic.AddUint64(&c.lastId, 1))
}
