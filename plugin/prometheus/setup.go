package prometheus

import (
	"strconv"
	"strings"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/plugin"
)

func init() {
	caddy.RegisterPlugin("prometheus", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupPrometheus,
	})
}

// Plugin records every indication served by the rest of the chain
type Plugin struct {
	Next    plugin.Handler
	Metrics *Metrics
}

func setupPrometheus(c *caddy.Controller) error {
	metrics, err := parse(c)
	if err != nil {
		return err
	}

	cfg := coordinator.GetConfig(c)
	metrics.iface = cfg.Interface
	metrics.store = func() *lease.Store { return cfg.Store }
	metrics.define()

	c.OnStartup(metrics.start)
	c.OnShutdown(metrics.stop)

	plg := &Plugin{Metrics: metrics}
	cfg.AddPlugin(func(next plugin.Handler) plugin.Handler {
		plg.Next = next
		return plg
	})
	return nil
}

// prometheus {
//	address localhost:9180
// }
// Or just: prometheus localhost:9180
func parse(c *caddy.Controller) (*Metrics, error) {
	var metrics *Metrics

	for c.Next() {
		if metrics != nil {
			return nil, c.Err("prometheus: can only have one metrics module per interface")
		}

		args := c.RemainingArgs()
		metrics = NewMetrics("", "")
		switch len(args) {
		case 0:
		case 1:
			metrics.addr = args[0]
		default:
			return nil, c.ArgErr()
		}
		for c.NextBlock() {
			switch c.Val() {
			case "path":
				args = c.RemainingArgs()
				if len(args) != 1 {
					return nil, c.ArgErr()
				}
				if !strings.HasPrefix(args[0], "/") {
					return nil, c.Errf("prometheus: path must start with a slash: %q", args[0])
				}
				metrics.path = args[0]
			case "address":
				args = c.RemainingArgs()
				if len(args) != 1 {
					return nil, c.ArgErr()
				}
				metrics.addr = args[0]
			case "hostname":
				args = c.RemainingArgs()
				if len(args) != 1 {
					return nil, c.ArgErr()
				}
				metrics.hostname = args[0]
			case "label":
				args = c.RemainingArgs()
				if len(args) != 2 {
					return nil, c.ArgErr()
				}

				labelName := strings.TrimSpace(args[0])
				switch labelName {
				case "", "iface", "hostname", "command", "state":
					return nil, c.Errf("prometheus: invalid or reserved label name %q", labelName)
				}

				metrics.extraLabels = append(metrics.extraLabels, extraLabel{name: labelName, value: args[1]})
			case "latency_buckets":
				args = c.RemainingArgs()
				if len(args) < 1 {
					return nil, c.Err("prometheus: must specify 1 or more latency buckets")
				}
				metrics.latencyBuckets = make([]float64, len(args))
				for i, v := range args {
					b, err := strconv.ParseFloat(v, 64)
					if err != nil {
						return nil, c.Errf("prometheus: invalid bucket %q - must be a number", v)
					}
					metrics.latencyBuckets[i] = b
				}
			default:
				return nil, c.Errf("prometheus: unknown item: %s", c.Val())
			}
		}
	}

	return metrics, nil
}
