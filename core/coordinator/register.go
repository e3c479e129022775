package coordinator

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/channel/genl"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/utils/iface"

	// make sure the default storage driver is available
	_ "github.com/nextdhcp/nextpan/core/lease/storage/drivers"
)

const serverType = "wpan"

func init() {
	caddy.RegisterServerType(serverType, caddy.ServerType{
		Directives: func() []string { return Directives },
		DefaultInput: func() caddy.Input {
			return caddy.CaddyfileInput{
				Filepath:       "Panfile",
				Contents:       []byte{},
				ServerTypeName: serverType,
			}
		},
		NewContext: newContext,
	})
}

func newContext(i *caddy.Instance) caddy.Context {
	return &wpanContext{
		keyToConfig: make(map[string]*Config),
	}
}

type wpanContext struct {
	configs     []*Config
	keyToConfig map[string]*Config
}

func (c *wpanContext) addConfig(key string, cfg *Config) {
	c.configs = append(c.configs, cfg)
	c.keyToConfig[key] = cfg
}

func (c *wpanContext) InspectServerBlocks(sourceFile string, serverBlocks []caddyfile.ServerBlock) ([]caddyfile.ServerBlock, error) {
	seen := make(map[string]bool)

	for si, s := range serverBlocks {
		for ki, k := range s.Keys {
			if err := iface.Validate(k); err != nil {
				return nil, fmt.Errorf("invalid interface in server block %d: %s", si, err)
			}

			if seen[k] {
				return nil, fmt.Errorf("interface %s is served more than once", k)
			}
			seen[k] = true

			cfg := &Config{
				Interface: k,
				Range:     lease.DefaultRange,
				Logger:    log.Log.WithField("iface", k),
			}

			configKey := keyForConfig(si, ki)
			c.addConfig(configKey, cfg)
		}
	}

	return serverBlocks, nil
}

func (c *wpanContext) MakeServers() ([]caddy.Server, error) {
	for _, cfg := range c.configs {
		if err := prepare(cfg); err != nil {
			return nil, fmt.Errorf("failed to prepare interface %s: %w", cfg.Interface, err)
		}
	}

	var servers []caddy.Server
	for _, cfg := range c.configs {
		s, err := NewServer(cfg)
		if err != nil {
			return servers, err
		}

		servers = append(servers, s)
	}

	return servers, nil
}

// prepare creates the lease store of cfg, restores persisted leases and
// builds the middleware chain
func prepare(cfg *Config) error {
	if cfg.Logger == nil {
		cfg.Logger = log.Log.WithField("iface", cfg.Interface)
	}

	if err := cfg.Range.Validate(); err != nil {
		return err
	}

	if cfg.Store == nil {
		cfg.Store = lease.NewStore(lease.WithRange(cfg.Range))
	}

	if cfg.Dial == nil {
		cfg.Dial = func() (channel.Channel, error) {
			return genl.Dial(genl.WithLogger(cfg.Logger))
		}
	}

	if err := openDatabase(cfg); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	n, err := cfg.Database.Load(context.Background(), cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to load leases: %w", err)
	}
	cfg.Logger.Infof("restored %d leases", n)

	return buildMiddlewareChain(cfg)
}

func openDatabase(cfg *Config) error {
	// If the database is already opened we can bail out
	if cfg.Database != nil {
		return nil
	}

	s, err := storage.Open(storage.DefaultDriver, map[string][]string{})
	if err != nil {
		return err
	}

	cfg.Database = storage.NewDatabase(s).WithLogger(cfg.Logger)
	cfg.DatabaseName = storage.DefaultDriver

	return nil
}
