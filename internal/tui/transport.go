package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/message"
)

// DefaultBuffer is the number of outbound messages the terminal may lag
// behind before deliveries fail.
const DefaultBuffer = 256

var (
	errTransportFull   = errors.New("terminal view buffer full")
	errTransportClosed = errors.New("terminal view closed")
)

// OutboundMsg carries a host message into the bubbletea update loop.
type OutboundMsg struct {
	Message message.Outbound
}

// Transport delivers outbound messages to a bubbletea program. Send never
// blocks; Pump forwards buffered messages to the program from its own
// goroutine, since tea.Program.Send blocks until the program reads.
type Transport struct {
	events    chan message.Outbound
	done      chan struct{}
	closeOnce sync.Once
}

// NewTransport returns a Transport buffering up to buffer messages.
func NewTransport(buffer int) *Transport {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Transport{
		events: make(chan message.Outbound, buffer),
		done:   make(chan struct{}),
	}
}

// Send queues m for the program.
func (t *Transport) Send(m message.Outbound) error {
	select {
	case <-t.done:
		return errTransportClosed
	default:
	}
	select {
	case t.events <- m:
		return nil
	default:
		return errTransportFull
	}
}

// Pump forwards queued messages to send until ctx is cancelled or the
// transport is closed.
func (t *Transport) Pump(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case m := <-t.events:
			send(OutboundMsg{Message: m})
		}
	}
}

// Close stops the pump and fails later sends.
func (t *Transport) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}
