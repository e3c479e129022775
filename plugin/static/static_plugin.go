package static

import (
	"context"

	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/plugin"
)

// Plugin allows assignment of fixed short addresses to devices based on
// their hardware address. It implements plugin.Handler
type Plugin struct {
	Next      plugin.Handler
	Addresses map[mac.HardwareAddr]mac.ShortAddr
	L         log.Logger
}

// Name returns "static" and implements plugin.Handler
func (s *Plugin) Name() string {
	return "static"
}

// ServeWPAN serves an indication and implements plugin.Handler. If the
// associating device is configured and asks for a short address the
// static one is sent and the dynamic range is not touched
func (s *Plugin) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	ind := plugin.Associate(req)
	if ind == nil || !ind.Capability.WantsShort() {
		return s.Next.ServeWPAN(ctx, req, resp)
	}

	short, ok := s.Addresses[ind.Source]
	if !ok {
		return s.Next.ServeWPAN(ctx, req, resp)
	}

	resp.Status = mac.StatusSuccess
	resp.Short = short

	log.With(ctx, s.L).Infof("%s: serving static short address %s", ind.Source, short)

	return nil
}
