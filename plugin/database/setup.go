package database

import (
	"context"
	"sync"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/events"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/log"

	// include all built-in drivers
	_ "github.com/nextdhcp/nextpan/core/lease/storage/drivers"
)

// syncing holds all coordinator configurations that write every lease
// change to their database immediately
var syncing sync.Map

func init() {
	caddy.RegisterPlugin("database", caddy.Plugin{
		ServerType: "wpan",
		Action:     parseDatabaseDirective,
	})

	events.RegisterLeaseEventHook("database-sync-granted", events.EventLeaseGranted, syncLease)
	events.RegisterLeaseEventHook("database-sync-released", events.EventLeaseReleased, syncLease)
}

func parseDatabaseDirective(c *caddy.Controller) error {
	if !c.Next() {
		return c.ArgErr()
	}

	if !c.NextArg() {
		return c.ArgErr()
	}
	driverName := c.Val()

	var options = make(map[string][]string)
	remaining := c.RemainingArgs()
	if len(remaining) > 0 {
		options["__args__"] = remaining
	}

	syncLeases := false
	for c.NextBlock() {
		if c.Val() == "sync" {
			if c.NextArg() {
				return c.ArgErr()
			}
			syncLeases = true
			continue
		}

		options[c.Val()] = c.RemainingArgs()
	}

	if c.Next() {
		return c.ArgErr()
	}

	store, err := storage.Open(driverName, options)
	if err != nil {
		return err
	}

	cfg := coordinator.GetConfig(c)
	cfg.Database = storage.NewDatabase(store).WithLogger(log.GetLogger(c, "database"))
	cfg.DatabaseName = driverName

	if syncLeases {
		syncing.Store(cfg, struct{}{})
		c.OnShutdown(func() error {
			syncing.Delete(cfg)
			return nil
		})
	}

	return nil
}

// syncLease writes the lease of ev to the database of the configuration
// that owns the lease store
func syncLease(event caddy.EventName, ev *events.LeaseEvent) error {
	var err error

	syncing.Range(func(key, _ interface{}) bool {
		cfg := key.(*coordinator.Config)
		if cfg.Store == nil || cfg.Store != ev.Store || cfg.Database == nil {
			return true
		}

		ctx := context.Background()

		switch event {
		case events.EventLeaseGranted:
			err = cfg.Database.Granted(ctx, ev.Lease)
		case events.EventLeaseReleased:
			err = cfg.Database.Released(ctx, ev.Lease)
		}

		if err != nil {
			cfg.Logger.Errorf("failed to sync lease %s: %s", ev.Lease, err)
		}

		return false
	})

	return err
}
