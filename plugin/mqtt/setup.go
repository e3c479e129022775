package mqtt

import (
	"strconv"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/coordinator"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/core/matcher"
	"github.com/nextdhcp/nextpan/plugin"
)

func init() {
	caddy.RegisterPlugin("mqtt", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupMqtt,
	})
}

func setupMqtt(c *caddy.Controller) error {
	plg, err := makeMqttPlugin(c)
	if err != nil {
		return err
	}

	c.OnShutdown(plg.Close)

	coordinator.GetConfig(c).AddPlugin(func(next plugin.Handler) plugin.Handler {
		plg.next = next
		return plg
	})
	return nil
}

func makeMqttPlugin(c *caddy.Controller) (*mqttPlugin, error) {
	plg := &mqttPlugin{
		l: log.GetLogger(c, "mqtt"),
	}

	for c.Next() {
		cfg := &mqttConfig{}
		useExisting := false

		cond, err := matcher.SetupMatcherRemainingArgs(c)
		if err != nil {
			return nil, err
		}
		cfg.Matcher = cond

		for c.NextBlock() {
			switch c.Val() {
			case "name", "broker", "user", "password",
				"client-id", "clean-session", "qos":
				if useExisting {
					return nil, c.SyntaxErr("either configure a new connection or \"use\" and existing one")
				}

				if err := parseConnectionSettings(cfg, c); err != nil {
					return nil, err
				}

			case "use":
				if cfg.conn != nil {
					return nil, c.SyntaxErr("either configure a new connection or \"use\" and existing one")
				}
				useExisting = true

				if !c.NextArg() {
					return nil, c.ArgErr()
				}
				cfg.name = c.Val()

			case "topic":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}

				cfg.topic = c.Val()

			case "payload", "body":
				if !c.NextArg() {
					return nil, c.ArgErr()
				}

				cfg.payload = c.Val()

			default:
				return nil, c.Errf("mqtt: unknown item: %s", c.Val())
			}
		}

		if !useExisting && cfg.conn == nil {
			return nil, c.SyntaxErr("Either configure a MQTT connection or \"use\" an existing one")
		}

		if cfg.conn != nil && len(cfg.conn.broker) == 0 {
			return nil, c.Err("mqtt: at least one broker is required")
		}

		if cfg.topic == "" {
			return nil, c.Err("mqtt: topic is required")
		}

		plg.configs = append(plg.configs, cfg)
	}

	// "use" must reference a connection of this interface
	for _, cfg := range plg.configs {
		if cfg.conn != nil {
			continue
		}

		found := false
		for _, other := range plg.configs {
			if other.conn != nil && other.name == cfg.name {
				found = true
				break
			}
		}

		if !found {
			return nil, c.Errf("mqtt: connection with name %q not found", cfg.name)
		}
	}

	return plg, nil
}

func parseConnectionSettings(cfg *mqttConfig, c *caddy.Controller) error {
	if cfg.conn == nil {
		cfg.conn = &mqttConnConfig{}
	}

	action := c.Val()
	if action == "clean-session" {
		cfg.conn.cleanSession = true
		return nil
	}

	if !c.NextArg() {
		return c.ArgErr()
	}

	switch action {
	case "name":
		cfg.name = c.Val()
	case "broker":
		cfg.conn.broker = append([]string{c.Val()}, c.RemainingArgs()...)
	case "user":
		cfg.conn.user = c.Val()
	case "password":
		cfg.conn.password = c.Val()
	case "client-id":
		cfg.conn.clientID = c.Val()
	case "qos":
		i, err := strconv.Atoi(c.Val())
		if err != nil || i < 0 || i > 2 {
			return c.SyntaxErr("expected a number between 0 and 2")
		}
		cfg.conn.qos = i
	}

	return nil
}
