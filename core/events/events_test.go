package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventHooks = &sync.Map{}

func init() {
	caddy.RegisterEventHook("event-testing-hook", func(name caddy.EventName, info interface{}) error {
		eventHooks.Range(func(_, value interface{}) bool {
			value.(caddy.EventHook)(name, info)
			return true
		})

		return nil
	})
}

func registerTestingHook(name string, hook caddy.EventHook) {
	eventHooks.LoadOrStore(name, hook)
}

func removeTestingHook(name string) {
	eventHooks.Delete(name)
}

func TestEmitLeaseEvent(t *testing.T) {
	ev := &LeaseEvent{
		Interface: "wpan0",
		Store:     lease.NewStore(),
		Lease: lease.Lease{
			HwAddr:    mac.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00, 0x11},
			Short:     0x8001,
			GrantedAt: time.Now(),
		},
	}

	fired := false
	registerTestingHook("test-emit-lease-event", func(name caddy.EventName, info interface{}) error {
		if name != EventLeaseGranted {
			return nil
		}
		fired = true

		lp, ok := info.(*LeaseEvent)
		require.True(t, ok)
		assert.Equal(t, ev, lp)

		return nil
	})
	defer removeTestingHook("test-emit-lease-event")

	EmitLeaseEvent(EventLeaseGranted, ev)
	assert.True(t, fired)
}

func TestEmitLeaseEvent_invalid_name(t *testing.T) {
	eventFired := false
	registerTestingHook("test-emit-lease-event-invalid-name", func(name caddy.EventName, info interface{}) error {
		if name == "invalid-name" {
			eventFired = true
		}
		return nil
	})
	defer removeTestingHook("test-emit-lease-event-invalid-name")

	EmitLeaseEvent("invalid-name", nil)

	assert.False(t, eventFired)
}

func TestRegisterLeaseEventHook(t *testing.T) {
	called := false
	RegisterLeaseEventHook("test-register-hook", EventLeaseGranted, func(e caddy.EventName, ev *LeaseEvent) error {
		called = true
		return nil
	})

	caddy.EmitEvent("some-other-event", nil)
	assert.False(t, called, "should have been filtered")

	caddy.EmitEvent(EventLeaseReleased, &LeaseEvent{})
	assert.False(t, called, "should have been filtered")

	caddy.EmitEvent(EventLeaseGranted, &LeaseEvent{})
	assert.True(t, called, "should have been emitted")
}

func TestRegisterLeaseEventHook_panic(t *testing.T) {
	assert.Panics(t, func() {
		RegisterLeaseEventHook("should-panic-hook", "invalid-event-type", nil)
	})
}

func TestChannelFailure(t *testing.T) {
	var got *ChannelFailure
	RegisterChannelFailureHook("test-channel-failure", func(f *ChannelFailure) {
		got = f
	})

	err := errors.New("socket closed")
	EmitChannelFailure("wpan0", err)

	require.NotNil(t, got)
	assert.Equal(t, "wpan0", got.Interface)
	assert.Equal(t, err, got.Err)
}
