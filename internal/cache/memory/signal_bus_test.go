package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalBusPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSignalBus()

	ch, err := bus.Subscribe(ctx, "listing_created")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "listing_created", []byte(`{"type":"listing_created"}`)))

	select {
	case msg := <-ch:
		assert.JSONEq(t, `{"type":"listing_created"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestSignalBusChannelIsolation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewSignalBus()

	orders, err := bus.Subscribe(ctx, "order_placed")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, "listing_created", []byte("x")))

	select {
	case msg := <-orders:
		t.Fatalf("unexpected message on order_placed: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignalBusUnsubscribeOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewSignalBus()

	ch, err := bus.Subscribe(ctx, "refresh_failed")
	require.NoError(t, err)

	cancel()

	// The channel closes once the subscriber context is done.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after cancel")
		}
	}
}
