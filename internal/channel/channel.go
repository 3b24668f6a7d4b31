// Package channel implements the per-view outbound message channel.
//
// A Channel wraps a transport that may be absent, hidden or gone for good.
// Messages posted while the view is hidden are queued and delivered in FIFO
// order when the view becomes visible again. Delivery failures are logged and
// dropped, never retried.
package channel

import (
	"fmt"
	"sync"

	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/logging"
	"github.com/Iron-Ham/ralphui/internal/message"
)

// Transport delivers messages to a rendered view surface.
// Send must not call back into the Channel it is attached to.
type Transport interface {
	Send(m message.Outbound) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(m message.Outbound) error

// Send calls f(m).
func (f TransportFunc) Send(m message.Outbound) error { return f(m) }

// Channel is the outbound side of one view. It is safe for concurrent use;
// messages posted from one goroutine are delivered in post order.
type Channel struct {
	logger *logging.Logger

	mu        sync.Mutex
	transport Transport
	visible   bool
	disposed  bool
	flushing  bool
	queue     []message.Outbound
}

// New creates a Channel with no transport attached.
func New(visible bool, logger *logging.Logger) *Channel {
	return &Channel{
		logger:  logging.OrNop(logger).WithComponent("channel"),
		visible: visible,
	}
}

// Attach sets the transport. It is ignored once the channel is disposed.
func (c *Channel) Attach(t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.transport = t
}

// Detach clears the transport if t is the one attached. Queued messages are
// kept; they are consumed by the next flush.
func (c *Channel) Detach(t Transport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == t {
		c.transport = nil
	}
}

// Reset drops every queued message and returns how many were dropped. A
// view that re-sends its whole model on attach calls it first so the old
// queue is not delivered on top of the replay.
func (c *Channel) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.queue)
	c.queue = nil
	return n
}

// Post accepts m for delivery. It returns true when m was delivered or queued
// and false when the channel is disposed, has no transport or delivery failed.
func (c *Channel) Post(m message.Outbound) bool {
	return c.Send(m) == nil
}

// Send is Post with the rejection reason: errors.ErrViewDisposed,
// errors.ErrTransportAbsent or errors.ErrDeliveryFailed.
func (c *Channel) Send(m message.Outbound) error {
	c.mu.Lock()
	switch {
	case c.disposed:
		c.mu.Unlock()
		return errors.ErrViewDisposed
	case c.transport == nil:
		c.mu.Unlock()
		return errors.ErrTransportAbsent
	case !c.visible || c.flushing:
		c.queue = append(c.queue, m)
		c.mu.Unlock()
		return nil
	}
	t := c.transport
	c.mu.Unlock()

	if err := t.Send(m); err != nil {
		c.logger.Warn("failed to post message", "type", string(m.Type()), "error", err)
		return fmt.Errorf("%w: %w", errors.ErrDeliveryFailed, err)
	}
	return nil
}

// SetVisible records the view's visibility. Only the hidden → visible edge
// flushes the queue; it returns the number of messages delivered.
func (c *Channel) SetVisible(visible bool) int {
	c.mu.Lock()
	edge := visible && !c.visible && !c.disposed
	c.visible = visible
	if !edge || c.flushing {
		c.mu.Unlock()
		return 0
	}
	batch := c.beginFlushLocked()
	c.mu.Unlock()
	return c.drain(batch)
}

// Flush drains the queue in FIFO order and returns how many messages were
// delivered. Every queued entry is consumed: entries that fail, or that meet a
// disposed or detached channel, are dropped. Messages posted while a flush is
// running are appended and drained by the same flush while the view stays
// visible.
func (c *Channel) Flush() int {
	c.mu.Lock()
	if c.flushing {
		c.mu.Unlock()
		return 0
	}
	batch := c.beginFlushLocked()
	c.mu.Unlock()
	return c.drain(batch)
}

func (c *Channel) beginFlushLocked() []message.Outbound {
	c.flushing = true
	batch := c.queue
	c.queue = nil
	return batch
}

func (c *Channel) drain(batch []message.Outbound) int {
	delivered := 0
	for {
		for _, m := range batch {
			if c.deliverQueued(m) {
				delivered++
			}
		}

		c.mu.Lock()
		if len(c.queue) == 0 || !c.visible || c.disposed {
			c.flushing = false
			c.mu.Unlock()
			return delivered
		}
		batch = c.queue
		c.queue = nil
		c.mu.Unlock()
	}
}

func (c *Channel) deliverQueued(m message.Outbound) bool {
	c.mu.Lock()
	t := c.transport
	usable := !c.disposed && t != nil
	c.mu.Unlock()

	if !usable {
		return false
	}
	if err := t.Send(m); err != nil {
		c.logger.Warn("failed to flush queued message", "type", string(m.Type()), "error", err)
		return false
	}
	return true
}

// Dispose drops the queue and the transport and makes the channel permanently
// unusable. Idempotent.
func (c *Channel) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	c.disposed = true
	c.queue = nil
	c.transport = nil
}

// IsDisposed reports whether Dispose has been called.
func (c *Channel) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Visible reports the last visibility set.
func (c *Channel) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Attached reports whether a transport is attached.
func (c *Channel) Attached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport != nil
}

// QueueLen returns the number of queued messages.
func (c *Channel) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
