package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easypmnt/liqpay-gateway/events"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher(t *testing.T) {
	d := events.NewDispatcher(log.NewNopLogger(), 8)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx) //nolint:errcheck

	got := make(chan events.OrderStatusPayload, 1)
	d.On(events.OrderPaid, func(payload ...interface{}) error {
		require.Len(t, payload, 1)
		got <- payload[0].(events.OrderStatusPayload)
		return nil
	})
	d.On(events.OrderPaid, func(payload ...interface{}) error {
		return errors.New("listener errors are logged, not propagated")
	})

	d.Fire(events.OrderFailed, events.OrderStatusPayload{OrderID: "ignored"})
	d.Fire(events.OrderPaid, events.OrderStatusPayload{OrderID: "42", Status: "processing", Source: events.SourceWebhook})

	select {
	case p := <-got:
		assert.Equal(t, "42", p.OrderID)
		assert.Equal(t, events.SourceWebhook, p.Source)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestDispatcher_FireDoesNotBlockAfterRun(t *testing.T) {
	d := events.NewDispatcher(log.NewNopLogger(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))

	fired := make(chan struct{})
	go func() {
		defer close(fired)
		for i := 0; i < 50; i++ {
			d.Fire(events.OrderPaid, events.OrderStatusPayload{OrderID: "42"})
		}
	}()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Fire blocked after Run returned")
	}

	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	d.Fire(events.OrderPaid, events.OrderStatusPayload{OrderID: "42"})
}
