package events

import (
	"runtime/debug"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/lease"
)

const (
	// EventLeaseGranted is emitted when a short address has been bound
	// to a device or a device re-associated
	EventLeaseGranted caddy.EventName = "lease-granted"

	// EventLeaseReleased is emitted when a device disassociated and its
	// short address has been freed
	EventLeaseReleased caddy.EventName = "lease-released"

	// EventChannelFailed is emitted when the control channel of an
	// interface failed and the interface is no longer served. The event
	// info is a *ChannelFailure
	EventChannelFailed caddy.EventName = "channel-failed"
)

type (
	// LeaseEvent is the info passed to lease event hooks
	LeaseEvent struct {
		// Interface is the name of the interface that served the
		// request
		Interface string

		// Store is the lease store the lease belongs to
		Store *lease.Store

		// Lease is the granted or released lease
		Lease lease.Lease
	}

	// ChannelFailure is the info passed to EventChannelFailed hooks
	ChannelFailure struct {
		Interface string
		Err       error
	}

	// LeaseEventHook is the function type that can receive lease-based events
	LeaseEventHook func(event caddy.EventName, ev *LeaseEvent) error
)

var (
	validLeaseEvents = map[caddy.EventName]struct{}{
		EventLeaseGranted:  {},
		EventLeaseReleased: {},
	}
)

// EmitLeaseEvent emits a lease-based event
func EmitLeaseEvent(event caddy.EventName, ev *LeaseEvent) {
	if _, ok := validLeaseEvents[event]; !ok {
		log.Errorf("invalid lease event type %q", event)
		log.Errorf("%s", debug.Stack())
		return
	}

	caddy.EmitEvent(event, ev)
}

// RegisterLeaseEventHook registers a new lease event hook under name. hook
// is only called for event
func RegisterLeaseEventHook(name string, event caddy.EventName, hook LeaseEventHook) {
	if _, ok := validLeaseEvents[event]; !ok {
		panic("invalid lease event name")
	}

	caddy.RegisterEventHook(name, func(e caddy.EventName, value interface{}) error {
		if e != event {
			return nil
		}

		ev, ok := value.(*LeaseEvent)
		if !ok {
			return nil
		}

		return hook(e, ev)
	})
}

// EmitChannelFailure emits EventChannelFailed
func EmitChannelFailure(iface string, err error) {
	caddy.EmitEvent(EventChannelFailed, &ChannelFailure{
		Interface: iface,
		Err:       err,
	})
}

// RegisterChannelFailureHook registers a hook for EventChannelFailed
func RegisterChannelFailureHook(name string, hook func(*ChannelFailure)) {
	caddy.RegisterEventHook(name, func(e caddy.EventName, value interface{}) error {
		if e != EventChannelFailed {
			return nil
		}

		if f, ok := value.(*ChannelFailure); ok {
			hook(f)
		}

		return nil
	})
}
