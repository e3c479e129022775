package coordinator

import (
	"context"
	"errors"

	"github.com/nextdhcp/nextpan/core/events"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
)

// serveLease is the end of the middleware chain. It binds and frees
// short addresses in the lease store of cfg
func (cfg *Config) serveLease(ctx context.Context, req mac.Payload, resp *mac.AssociateResponse) error {
	switch ind := req.(type) {
	case *mac.AssociateIndication:
		return cfg.associate(ctx, ind, resp)
	case *mac.DisassociateIndication:
		return cfg.disassociate(ctx, ind)
	}

	log.With(ctx, cfg.Logger).Debugf("%s not handled. dropping", req.Command())
	return ErrNoResponse
}

func (cfg *Config) associate(ctx context.Context, ind *mac.AssociateIndication, resp *mac.AssociateResponse) error {
	l := log.With(ctx, cfg.Logger)

	resp.Status = mac.StatusSuccess
	resp.Short = mac.ShortUnassigned

	if !ind.Capability.WantsShort() {
		l.Infof("%s associated without short address", ind.Source)
		return nil
	}

	short, err := cfg.Store.Allocate(ctx, ind.Source)
	if err != nil {
		if errors.Is(err, lease.ErrNoAddressAvailable) {
			l.Warnf("no short address available for %s", ind.Source)
			resp.Status = mac.StatusPANAtCapacity
			resp.Short = mac.ShortAllocFailed
			return nil
		}

		return err
	}

	resp.Short = short

	granted, err := cfg.Store.Lookup(ctx, ind.Source)
	if err != nil {
		return err
	}

	l.Infof("granted %s to %s", short, ind.Source)

	events.EmitLeaseEvent(events.EventLeaseGranted, &events.LeaseEvent{
		Interface: cfg.Interface,
		Store:     cfg.Store,
		Lease:     granted,
	})

	return nil
}

func (cfg *Config) disassociate(ctx context.Context, ind *mac.DisassociateIndication) error {
	l := log.With(ctx, cfg.Logger)

	released, err := cfg.Store.Release(ctx, ind.Source)
	if err != nil {
		if lease.IsUnknownLease(err) {
			l.Debugf("%s disassociated without a lease", ind.Source)
			return ErrNoResponse
		}

		return err
	}

	l.Infof("released %s from %s (reason 0x%02x)", released.Short, released.HwAddr, ind.Reason)

	events.EmitLeaseEvent(events.EventLeaseReleased, &events.LeaseEvent{
		Interface: cfg.Interface,
		Store:     cfg.Store,
		Lease:     released,
	})

	return ErrNoResponse
}
