package log

import (
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/caddyserver/caddy"
	"github.com/mattn/go-isatty"
)

func init() {
	caddy.RegisterPlugin("log", caddy.Plugin{
		ServerType: "wpan",
		Action:     setupLogging,
	})
}

const (
	formatAuto = "auto"
	formatCLI  = "cli"
	formatText = "text"
	formatJSON = "json"
)

type config struct {
	level  log.Level
	format string
	output string
}

func setupLogging(c *caddy.Controller) error {
	cfg, err := parseConfig(c)
	if err != nil {
		return err
	}

	out, err := cfg.open()
	if err != nil {
		return c.Err(err.Error())
	}

	if f, ok := out.(*os.File); ok && f != os.Stdout {
		c.OnShutdown(f.Close)
	}

	log.SetLevel(cfg.level)
	log.SetHandler(cfg.handler(out))

	return nil
}

func parseConfig(c *caddy.Controller) (*config, error) {
	cfg := &config{
		level:  log.InfoLevel,
		format: formatAuto,
	}

	c.Next()

	if !c.NextArg() {
		return nil, c.ArgErr()
	}

	l, err := log.ParseLevel(c.Val())
	if err != nil {
		return nil, c.SyntaxErr(err.Error())
	}
	cfg.level = l

	if c.NextArg() {
		return nil, c.ArgErr()
	}

	for c.NextBlock() {
		key := c.Val()
		args := c.RemainingArgs()
		if len(args) != 1 {
			return nil, c.ArgErr()
		}

		switch key {
		case "format":
			switch args[0] {
			case formatAuto, formatCLI, formatText, formatJSON:
				cfg.format = args[0]
			default:
				return nil, c.Errf("unsupported log format %q", args[0])
			}
		case "output-file":
			cfg.output = args[0]
		default:
			return nil, c.Errf("unknown log option %q", key)
		}
	}

	if c.Next() {
		return nil, c.SyntaxErr("invalid token or multiple \"log\" configurations")
	}

	return cfg, nil
}

func (cfg *config) open() (io.Writer, error) {
	if cfg.output == "" || cfg.output == "stdout" {
		return os.Stdout, nil
	}

	f, err := os.OpenFile(cfg.output, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return f, nil
}

func (cfg *config) handler(out io.Writer) log.Handler {
	switch cfg.format {
	case formatCLI:
		return cli.New(out)
	case formatText:
		return text.New(out)
	case formatJSON:
		return json.New(out)
	}

	if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return cli.New(out)
	}

	return text.New(out)
}
