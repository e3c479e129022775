package coordinator

import (
	"fmt"

	"github.com/caddyserver/caddy"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/log"
	"github.com/nextdhcp/nextpan/plugin"
)

// Config configures the coordinator of a single 802.15.4 interface
type Config struct {
	// Interface is the name of the served interface. Indications for
	// other interfaces are dropped
	Interface string

	// Range is the dynamic short address range. Defaults to
	// lease.DefaultRange
	Range lease.Range

	// Store holds the active leases of the interface. It is created
	// when the servers are made
	Store *lease.Store

	// Database persists the leases of Store. If nil the default
	// storage driver is opened
	Database *storage.Database

	// DatabaseName is the driver name of Database and is only used for
	// startup information
	DatabaseName string

	// Dial opens the control channel. Defaults to a generic netlink
	// connection
	Dial func() (channel.Channel, error)

	// Logger is used for all diagnostics of the interface
	Logger log.Logger

	// plugins is a list of middleware setup functions
	plugins []plugin.Plugin

	// chain is the beginning of the middleware chain for this interface
	chain plugin.Handler
}

// AddPlugin adds a new plugin to the middleware chain
func (cfg *Config) AddPlugin(p plugin.Plugin) {
	cfg.plugins = append(cfg.plugins, p)
}

func keyForConfig(serverBlockIndex, serverBlockKeyIndex int) string {
	return fmt.Sprintf("%d:%d", serverBlockIndex, serverBlockKeyIndex)
}

// GetConfig gets the Config that corresponds to c
// if none exist nil is returned
func GetConfig(c *caddy.Controller) *Config {
	ctx := c.Context().(*wpanContext)
	key := keyForConfig(c.ServerBlockIndex, c.ServerBlockKeyIndex)

	cfg := ctx.keyToConfig[key]
	return cfg
}

func buildMiddlewareChain(cfg *Config) error {
	var chain plugin.Handler = plugin.HandlerFunc(cfg.serveLease)
	for i := len(cfg.plugins) - 1; i >= 0; i-- {
		chain = cfg.plugins[i](chain)
	}

	cfg.chain = chain

	return nil
}
