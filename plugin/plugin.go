package plugin

import (
	"context"

	"github.com/nextdhcp/nextpan/core/mac"
)

type (
	// Handler for indications created by a plugin factory (see Plugin).
	// Each handler is responsible of calling the next handler in the chain
	// which was passed to Plugin
	Handler interface {
		// Name returns the name of the handler
		Name() string

		// ServeWPAN is called for each association and disassociation
		// indication. See HandlerFunc for more information
		ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error
	}

	// Plugin represents the setup func for a nextpan plugin. It is passed
	// the next plugin in the chain
	Plugin func(Handler) Handler

	// HandlerFunc allows to easily wrap a function as a Handler type.
	// req is either a *mac.AssociateIndication or a *mac.DisassociateIndication.
	// resp is only set for association indications and is prefilled with
	// the destination and device index of the request. The provided context
	// always carries the lease store of the interface, see lease.GetStore
	HandlerFunc func(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error
)

// ServeWPAN implements the Handler interface
func (fn HandlerFunc) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	return fn(ctx, req, resp)
}

// Name returns "HandlerFunc" and implements the Handler interface
func (fn HandlerFunc) Name() string {
	return "HandlerFunc"
}

// Associate returns the association indication carried by req or nil
func Associate(req mac.Payload) *mac.AssociateIndication {
	ind, _ := req.(*mac.AssociateIndication)
	return ind
}

// Disassociate returns the disassociation indication carried by req or nil
func Disassociate(req mac.Payload) *mac.DisassociateIndication {
	ind, _ := req.(*mac.DisassociateIndication)
	return ind
}
