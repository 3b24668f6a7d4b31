package channel

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ralpherrors "github.com/Iron-Ham/ralphui/internal/errors"
	"github.com/Iron-Ham/ralphui/internal/message"
	"github.com/Iron-Ham/ralphui/internal/testutil"
)

func countdowns(n ...int) []message.Outbound {
	out := make([]message.Outbound, len(n))
	for i, s := range n {
		out[i] = message.Countdown{Seconds: s}
	}
	return out
}

func TestChannel_PostWithoutTransport(t *testing.T) {
	c := New(true, nil)

	assert.False(t, c.Post(message.Countdown{Seconds: 1}))
	assert.ErrorIs(t, c.Send(message.Countdown{Seconds: 1}), ralpherrors.ErrTransportAbsent)
	assert.Zero(t, c.QueueLen())
}

func TestChannel_PostVisibleDeliversImmediately(t *testing.T) {
	c := New(true, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)

	assert.True(t, c.Post(message.Countdown{Seconds: 3}))
	assert.Equal(t, countdowns(3), rec.Messages())
	assert.Zero(t, c.QueueLen())
}

func TestChannel_PostHiddenQueuesThenFlushesInOrder(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)

	a := message.Log{Message: "A", Level: message.LevelInfo}
	b := message.Log{Message: "B", Level: message.LevelInfo}
	cc := message.Log{Message: "C", Level: message.LevelInfo}
	for _, m := range []message.Outbound{a, b, cc} {
		require.True(t, c.Post(m))
	}
	assert.Empty(t, rec.Messages(), "nothing is delivered while hidden")
	assert.Equal(t, 3, c.QueueLen())

	assert.Equal(t, 3, c.SetVisible(true))
	assert.Equal(t, []message.Outbound{a, b, cc}, rec.Messages())
	assert.Zero(t, c.QueueLen())
}

func TestChannel_SetVisibleIsEdgeTriggered(t *testing.T) {
	c := New(true, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)

	// Visible → visible does not flush.
	assert.Zero(t, c.SetVisible(true))

	c.SetVisible(false)
	c.Post(message.Countdown{Seconds: 1})
	// Hidden → hidden does not flush.
	assert.Zero(t, c.SetVisible(false))
	assert.Equal(t, 1, c.QueueLen())

	assert.Equal(t, 1, c.SetVisible(true))
	assert.Zero(t, c.SetVisible(true))
	assert.Len(t, rec.Messages(), 1)
}

func TestChannel_DeliveryFailureIsNotRetried(t *testing.T) {
	c := New(true, nil)
	rec := testutil.NewRecordingTransport()
	rec.FailWith(errors.New("socket closed"))
	c.Attach(rec)

	err := c.Send(message.Countdown{Seconds: 1})
	assert.ErrorIs(t, err, ralpherrors.ErrDeliveryFailed)
	assert.False(t, c.Post(message.Countdown{Seconds: 2}))
	assert.Zero(t, c.QueueLen())

	rec.FailWith(nil)
	c.SetVisible(false)
	c.SetVisible(true)
	assert.Empty(t, rec.Messages())
}

func TestChannel_FlushConsumesQueueEvenWhenDeliveryFails(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)
	for _, m := range countdowns(1, 2, 3) {
		c.Post(m)
	}

	rec.FailWith(errors.New("boom"))
	assert.Zero(t, c.SetVisible(true))
	assert.Zero(t, c.QueueLen())
}

func TestChannel_FlushContinuesPastFailedEntry(t *testing.T) {
	c := New(false, nil)
	var got []int
	calls := 0
	c.Attach(TransportFunc(func(m message.Outbound) error {
		calls++
		if calls == 2 {
			return errors.New("transient")
		}
		got = append(got, m.(message.Countdown).Seconds)
		return nil
	}))
	for _, m := range countdowns(1, 2, 3) {
		c.Post(m)
	}

	assert.Equal(t, 2, c.SetVisible(true))
	assert.Equal(t, []int{1, 3}, got)
}

func TestChannel_DisposeDropsQueue(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)
	for _, m := range countdowns(1, 2, 3, 4) {
		c.Post(m)
	}

	c.Dispose()
	c.Dispose()

	assert.True(t, c.IsDisposed())
	assert.Zero(t, c.QueueLen())
	assert.Zero(t, c.SetVisible(true))
	assert.Empty(t, rec.Messages())
	assert.ErrorIs(t, c.Send(message.Countdown{}), ralpherrors.ErrViewDisposed)
	assert.False(t, c.Attached())
}

func TestChannel_ResetDropsQueueOnly(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)
	for _, m := range countdowns(1, 2) {
		c.Post(m)
	}

	assert.Equal(t, 2, c.Reset())
	assert.Zero(t, c.QueueLen())
	assert.Zero(t, c.SetVisible(true))
	assert.Empty(t, rec.Messages())

	assert.True(t, c.Attached(), "reset keeps the transport")
	assert.True(t, c.Post(message.Countdown{Seconds: 3}))
	assert.Equal(t, countdowns(3), rec.Messages())
}

func TestChannel_DisposeDuringFlushStopsDelivery(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	rec.OnSend(func(message.Outbound) { c.Dispose() })
	c.Attach(rec)
	for _, m := range countdowns(1, 2, 3) {
		c.Post(m)
	}

	assert.Equal(t, 1, c.SetVisible(true))
	assert.Zero(t, c.QueueLen())
	assert.Len(t, rec.Messages(), 1)
}

func TestChannel_AttachAfterDisposeIgnored(t *testing.T) {
	c := New(true, nil)
	c.Dispose()
	c.Attach(testutil.NewRecordingTransport())
	assert.False(t, c.Attached())
}

func TestChannel_DetachOnlyMatchingTransport(t *testing.T) {
	c := New(true, nil)
	first := testutil.NewRecordingTransport()
	second := testutil.NewRecordingTransport()

	c.Attach(first)
	c.Attach(second)
	c.Detach(first)
	assert.True(t, c.Attached())

	c.Detach(second)
	assert.False(t, c.Attached())
	assert.False(t, c.Post(message.Countdown{}))
}

func TestChannel_FlushWithoutTransportDropsEntries(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)
	c.Post(message.Countdown{Seconds: 1})
	c.Detach(rec)

	assert.Zero(t, c.SetVisible(true))
	assert.Zero(t, c.QueueLen())
	assert.Empty(t, rec.Messages())
}

func TestChannel_ConcurrentPostWhileFlushingKeepsEveryMessage(t *testing.T) {
	c := New(false, nil)
	rec := testutil.NewRecordingTransport()
	c.Attach(rec)
	for _, m := range countdowns(0, 1, 2, 3, 4) {
		c.Post(m)
	}

	var wg sync.WaitGroup
	wg.Go(func() { c.SetVisible(true) })
	for i := range 20 {
		wg.Go(func() { c.Post(message.Countdown{Seconds: 100 + i}) })
	}
	wg.Wait()

	msgs := rec.Messages()
	assert.Len(t, msgs, 25)
	assert.Equal(t, countdowns(0, 1, 2, 3, 4), msgs[:5])
	assert.Zero(t, c.QueueLen())
}
