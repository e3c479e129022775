package static

import (
	"fmt"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/plugin"
)

func init() {
	caddy.RegisterPlugin("static", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupStatic,
	})
}

func setupStatic(c *caddy.Controller) error {
	cfg := coordinator.GetConfig(c)

	addr, err := parseStatic(c, cfg)
	if err != nil {
		return err
	}

	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		return &Plugin{
			Next:      next,
			Addresses: addr,
			L:         log.GetLogger(c, "static"),
		}
	})

	return nil
}

func parseStatic(c *caddy.Controller, cfg *coordinator.Config) (map[mac.HardwareAddr]mac.ShortAddr, error) {
	addr := make(map[mac.HardwareAddr]mac.ShortAddr)
	owner := make(map[mac.ShortAddr]mac.HardwareAddr)

	for c.Next() {
		if !c.NextArg() {
			return nil, c.ArgErr()
		}

		hw, err := mac.ParseHardwareAddr(c.Val())
		if err != nil {
			return nil, c.Err(err.Error())
		}

		if !c.NextArg() {
			return nil, c.ArgErr()
		}

		short, err := mac.ParseShortAddr(c.Val())
		if err != nil {
			return nil, c.Err(err.Error())
		}

		if c.NextArg() {
			return nil, c.ArgErr()
		}

		if short == 0 || short.Reserved() {
			return nil, c.Errf("short address %s cannot be assigned", short)
		}

		if cfg != nil && cfg.Range.Contains(short) {
			return nil, c.Errf("static short address %s is part of the dynamic range %s", short, cfg.Range)
		}

		if e, ok := addr[hw]; ok {
			return nil, fmt.Errorf("static short address %s has already been configured for device %s", e, hw)
		}

		if other, ok := owner[short]; ok {
			return nil, fmt.Errorf("static short address %s is already used by device %s", short, other)
		}

		addr[hw] = short
		owner[short] = hw
	}

	return addr, nil
}
