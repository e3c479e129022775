package test

import (
	"context"
	"errors"

	"github.com/nextdhcp/nextpan/core/mac"
)

type (
	// HandlerFunc implements plugin.Handler
	HandlerFunc func(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error

	// Recorder is a plugin.Handler that records all indications it
	// has been called with
	Recorder struct {
		Requests []mac.Payload

		// Next, if set, is called after recording the request
		Next HandlerFunc
	}
)

// ServeWPAN implements plugin.Handler
func (fn HandlerFunc) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	return fn(ctx, req, resp)
}

// Name implements plugin.Handler
func (fn HandlerFunc) Name() string {
	return "test.HandlerFunc"
}

// ServeWPAN implements plugin.Handler
func (r *Recorder) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	r.Requests = append(r.Requests, req)

	if r.Next != nil {
		return r.Next(ctx, req, resp)
	}

	return nil
}

// Name implements plugin.Handler
func (r *Recorder) Name() string {
	return "test.Recorder"
}

// GrantHandler returns a handler that grants short to every association
func GrantHandler(short mac.ShortAddr) HandlerFunc {
	return func(_ context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
		if resp != nil {
			resp.Status = mac.StatusSuccess
			resp.Short = short
		}
		return nil
	}
}

var (
	// ErrorHandler is a plugin.Handler and always returns an error
	ErrorHandler = HandlerFunc(func(_ context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
		return errors.New("simulated error")
	})

	// NoOpHandler is a No-Operation plugin.Handler
	NoOpHandler = HandlerFunc(func(_ context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
		return nil
	})
)

// Indications used throughout plugin tests
var (
	HwAddr = mac.HardwareAddr{0x00, 0x12, 0x4b, 0x00, 0x01, 0x02, 0x03, 0x04}

	AssociateIndication = &mac.AssociateIndication{
		Interface:  "wpan0",
		DevIndex:   3,
		Source:     HwAddr,
		Capability: mac.CapFFD | mac.CapRxOnWhenIdle | mac.CapAllocShort,
	}

	DisassociateIndication = &mac.DisassociateIndication{
		Interface: "wpan0",
		DevIndex:  3,
		Reason:    2,
		Source:    mac.LongAddress(HwAddr),
	}
)

// NewResponse returns the prefilled association response for ind
func NewResponse(ind *mac.AssociateIndication) *mac.AssociateResponse {
	return &mac.AssociateResponse{
		Interface: ind.Interface,
		DevIndex:  ind.DevIndex,
		Status:    mac.StatusSuccess,
		Dest:      ind.Source,
		Short:     mac.ShortUnassigned,
	}
}
