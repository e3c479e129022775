package lua

import (
	"context"
	"fmt"
	"time"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/plugin"
)

// Plugin runs association indications through a lua policy script.
// It implements plugin.Handler
type Plugin struct {
	Next    plugin.Handler
	Runner  *Runner
	Timeout time.Duration
	L       log.Logger
}

// Name returns "lua" and implements plugin.Handler
func (p *Plugin) Name() string {
	return "lua"
}

// ServeWPAN implements plugin.Handler
func (p *Plugin) ServeWPAN(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	ind := plugin.Associate(req)
	if ind == nil {
		return p.Next.ServeWPAN(ctx, req, resp)
	}

	callCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	store := lease.GetStore(ctx)

	decision, err := p.Runner.Associate(callCtx, store, ind)
	if err != nil {
		return err
	}

	l := log.With(ctx, p.L)

	switch decision.Verdict {
	case Deny:
		l.Infof("%s: association denied by policy", ind.Source)
		resp.Status = mac.StatusAccessDenied
		resp.Short = mac.ShortAllocFailed
		return nil

	case Assign:
		if err := checkAssigned(ctx, store, ind.Source, decision.Short); err != nil {
			l.Warnf("%s: rejecting policy assignment: %s", ind.Source, err)
			resp.Status = mac.StatusAccessDenied
			resp.Short = mac.ShortAllocFailed
			return nil
		}

		l.Infof("%s: policy assigned short address %s", ind.Source, decision.Short)
		resp.Status = mac.StatusSuccess
		resp.Short = decision.Short
		return nil
	}

	return p.Next.ServeWPAN(ctx, req, resp)
}

// checkAssigned rejects short addresses that belong to the dynamic range
// of store or are leased to another device
func checkAssigned(ctx context.Context, store *lease.Store, hw mac.HardwareAddr, short mac.ShortAddr) error {
	if store == nil {
		return nil
	}

	if rng := store.Range(); rng.Contains(short) {
		return fmt.Errorf("%s is part of the dynamic range %s", short, rng)
	}

	existing, err := store.LookupShort(ctx, short)
	if err != nil {
		if lease.IsUnknownLease(err) {
			return nil
		}
		return err
	}

	if existing.HwAddr != hw {
		return fmt.Errorf("%s is leased to %s", short, existing.HwAddr)
	}

	return nil
}
