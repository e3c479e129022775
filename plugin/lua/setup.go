package lua

import (
	"time"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/plugin"
)

func init() {
	caddy.RegisterPlugin("lua", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupLua,
	})
}

func setupLua(c *caddy.Controller) error {
	p, err := makeLuaPlugin(c)
	if err != nil {
		return err
	}

	c.OnShutdown(p.Runner.Close)

	coordinator.GetConfig(c).AddPlugin(func(next plugin.Handler) plugin.Handler {
		p.Next = next
		return p
	})

	return nil
}

func makeLuaPlugin(c *caddy.Controller) (*Plugin, error) {
	p := &Plugin{
		L: log.GetLogger(c, "lua"),
	}

	var script string

	for c.Next() {
		if script != "" {
			return nil, c.Err("only one policy script can be configured")
		}

		if !c.NextArg() {
			return nil, c.ArgErr()
		}
		script = c.Val()

		if c.NextArg() {
			return nil, c.ArgErr()
		}

		for c.NextBlock() {
			switch c.Val() {
			case "timeout":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}

				d, err := time.ParseDuration(c.Val())
				if err != nil {
					return nil, c.SyntaxErr("duration")
				}
				p.Timeout = d

				if c.NextArg() {
					return nil, c.ArgErr()
				}
			default:
				return nil, c.Errf("unknown lua option %q", c.Val())
			}
		}
	}

	runner, err := NewFromFile(script)
	if err != nil {
		return nil, c.Errf("failed to load %s: %s", script, err)
	}
	runner.leases.Log = p.L

	p.Runner = runner

	return p, nil
}
