package gotify

import (
	"strconv"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/matcher"
	"github.com/nextdhcp/nextpan/plugin"
)

func init() {
	caddy.RegisterPlugin("gotify", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupGotify,
	})
}

func setupGotify(c *caddy.Controller) error {
	g, err := makeGotifyPlugin(c)
	if err != nil {
		return err
	}

	c.OnShutdown(g.Close)

	coordinator.GetConfig(c).AddPlugin(func(next plugin.Handler) plugin.Handler {
		g.next = next
		return g
	})

	return nil
}

// gotify [condition] {
//	server http://gotify.example.com app-token
//	message "{hwaddr} got {short}"
//	title "New device"
//	priority 5
// }
func makeGotifyPlugin(c *caddy.Controller) (*gotifyPlugin, error) {
	g := &gotifyPlugin{
		l: log.GetLogger(c, "gotify"),
	}

	for c.Next() {
		cond, err := matcher.SetupMatcherRemainingArgs(c)
		if err != nil {
			return nil, err
		}

		n := &notification{
			Matcher: cond,
		}
		n.srv, n.token, _ = g.findLastCreds()

		for c.NextBlock() {
			switch c.Val() {
			case "message":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				n.msg = templateFactory(c.Val())

			case "title":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				n.title = templateFactory(c.Val())

			case "server":
				args := c.RemainingArgs()
				if len(args) != 2 {
					return nil, c.ArgErr()
				}
				n.srv = args[0]
				n.token = args[1]

			case "priority":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				p, err := strconv.Atoi(c.Val())
				if err != nil || p < 0 || p > 10 {
					return nil, c.SyntaxErr("expected a number between 0 and 10")
				}
				n.priority = p

			default:
				return nil, c.Errf("gotify: unknown item: %s", c.Val())
			}
		}

		if n.msg == nil && (!cond.Empty() || n.title != nil) {
			return nil, c.Err("gotify: message must be set")
		}

		if n.msg != nil && (n.srv == "" || n.token == "") {
			return nil, c.Err("gotify: no server configured")
		}

		g.addNotification(n)
	}

	return g, nil
}
