package main

import (
	"go.uber.org/atomic"
)

// RequestCounter counts the requests served since process start. The value
// only moves through Next, so no caller can read and then write it back.
type RequestCounter struct {
	n atomic.Uint64
}

func NewRequestCounter() *RequestCounter {
	return &RequestCounter{}
}

// Next increments the counter and returns the new value. Concurrent callers
// always observe distinct values.
func (c *RequestCounter) Next() uint64 {
	return c.n.Inc()
}

// Load returns the current value without incrementing it.
func (c *RequestCounter) Load() uint64 {
	return c.n.Load()
}
