// Package channel implements the unbounded single-producer/single-consumer
// queue that carries commands from a session's network reader to its actuator.
package channel

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

var (
	// ErrTimeout is returned by Receive when nothing arrived in time.
	ErrTimeout = eris.New("receive timed out")
	// ErrDisconnected is returned by Receive once the producer closed the
	// channel and every queued value has been delivered.
	ErrDisconnected = eris.New("producer disconnected")
	// ErrReceiverGone is returned by Send after the consumer abandoned the channel.
	ErrReceiverGone = eris.New("receiver gone")
	// ErrClosed is returned by Send after the producer closed the channel.
	ErrClosed = eris.New("channel closed")
)

// Channel is an unbounded FIFO. Send never blocks. Receive waits at most the
// given timeout.
type Channel[T any] struct {
	mu        sync.Mutex
	queue     []T
	closed    bool
	abandoned bool
	notify    chan struct{}
	gone      chan struct{}
}

// New creates an empty channel.
func New[T any]() *Channel[T] {
	return &Channel[T]{notify: make(chan struct{}, 1), gone: make(chan struct{})}
}

// Send enqueues v.
func (c *Channel[T]) Send(v T) error {
	c.mu.Lock()
	switch {
	case c.abandoned:
		c.mu.Unlock()
		return ErrReceiverGone
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	}
	c.queue = append(c.queue, v)
	c.mu.Unlock()
	c.signal()
	return nil
}

// Close marks the producer as gone. Values already queued are still delivered.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.gone)
	}
	c.mu.Unlock()
	c.signal()
}

// Disconnected is closed once the producer called Close. It does not wait
// for the queue to drain.
func (c *Channel[T]) Disconnected() <-chan struct{} {
	return c.gone
}

// Abandon marks the consumer as gone; later sends fail with ErrReceiverGone.
func (c *Channel[T]) Abandon() {
	c.mu.Lock()
	c.abandoned = true
	c.queue = nil
	c.mu.Unlock()
}

// Receive returns the next value, ErrTimeout after timeout, or ErrDisconnected
// once the producer closed and the queue is empty.
func (c *Channel[T]) Receive(timeout time.Duration) (T, error) {
	var timer *time.Timer
	for {
		if v, ok, err := c.poll(); ok {
			if timer != nil {
				timer.Stop()
			}
			return v, err
		}
		if timer == nil {
			timer = time.NewTimer(timeout)
		}
		select {
		case <-c.notify:
		case <-timer.C:
			if v, ok, err := c.poll(); ok {
				return v, err
			}
			var zero T
			return zero, ErrTimeout
		}
	}
}

func (c *Channel[T]) poll() (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if len(c.queue) > 0 {
		v := c.queue[0]
		c.queue[0] = zero
		c.queue = c.queue[1:]
		return v, true, nil
	}
	if c.closed {
		return zero, true, ErrDisconnected
	}
	return zero, false, nil
}

func (c *Channel[T]) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// Len returns the number of queued values.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
