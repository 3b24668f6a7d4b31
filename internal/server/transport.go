package server

import (
	"fmt"

	"github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/message"
)

// errStreamFull is returned when a connection has fallen too far behind.
var errStreamFull = errors.New("event stream buffer full")

type sseEvent struct {
	typ  message.Type
	data []byte
}

// sseTransport encodes outbound messages onto a bounded buffer drained by the
// connection's handler goroutine. Send never blocks.
type sseTransport struct {
	id     string
	events chan sseEvent
}

func newSSETransport(id string, buffer int) *sseTransport {
	return &sseTransport{id: id, events: make(chan sseEvent, buffer)}
}

func (t *sseTransport) Send(m message.Outbound) error {
	data, err := message.Encode(m)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.Type(), err)
	}
	select {
	case t.events <- sseEvent{typ: m.Type(), data: data}:
		return nil
	default:
		return errStreamFull
	}
}
