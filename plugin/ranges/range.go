package ranges

import (
	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
)

func init() {
	caddy.RegisterPlugin("range", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupRange,
	})
}

func setupRange(c *caddy.Controller) error {
	var (
		r       lease.Range
		defined bool
	)

	for c.Next() {
		if defined {
			return c.Err("only one short address range can be configured per interface")
		}

		if !c.NextArg() {
			return c.ArgErr()
		}

		min, err := mac.ParseShortAddr(c.Val())
		if err != nil {
			return c.SyntaxErr("short address")
		}

		if !c.NextArg() {
			return c.ArgErr()
		}

		max, err := mac.ParseShortAddr(c.Val())
		if err != nil {
			return c.SyntaxErr("short address")
		}

		if c.NextArg() {
			return c.ArgErr()
		}

		r = lease.Range{Min: min, Max: max}
		if err := r.Validate(); err != nil {
			return c.Err(err.Error())
		}

		defined = true
	}

	coordinator.GetConfig(c).Range = r

	return nil
}
