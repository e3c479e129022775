package main

import (
	"errors"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/channel/genl"
	"github.com/nextdhcp/nextpan/core/commands"
	"github.com/nextdhcp/nextpan/core/dispatch"
	ucli "github.com/urfave/cli/v2"
)

// Dialer opens the control channel. events is true for commands that
// wait for messages of the coordinator multicast group
type Dialer func(events bool) (channel.Channel, error)

// App builds the iz command line application
type App struct {
	Out  io.Writer
	Dial Dialer
}

func defaultDial(events bool) (channel.Channel, error) {
	opts := []genl.Option{genl.WithLogger(log.Log)}
	if !events {
		opts = append(opts, genl.WithoutEvents())
	}

	return genl.Dial(opts...)
}

// Flags returns the global flags of iz
func (a App) Flags() []ucli.Flag {
	return []ucli.Flag{
		&ucli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "Enable debug output",
			EnvVars: []string{"IZ_DEBUG"},
		},
		&ucli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Give up after `DURATION`, 0 waits forever",
			Value:   0,
		},
	}
}

// New returns the cli.App with one command per descriptor
func (a App) New() *ucli.App {
	out := a.Out
	if out == nil {
		out = os.Stdout
	}

	dial := a.Dial
	if dial == nil {
		dial = defaultDial
	}

	table := commands.NewTable(out)

	app := &ucli.App{
		Name:            "iz",
		Usage:           "Manage IEEE 802.15.4 network interfaces",
		Flags:           a.Flags(),
		Writer:          out,
		HideHelpCommand: true,
		Before:          a.Before,
		Action: func(c *ucli.Context) error {
			commands.PrintUsage(out, table)
			return nil
		},
	}

	for _, desc := range table.All() {
		app.Commands = append(app.Commands, a.command(out, dial, desc))
	}

	return app
}

// Before configures logging from the global flags
func (a App) Before(c *ucli.Context) error {
	log.SetHandler(cli.New(os.Stderr))
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	return nil
}

func (a App) command(out io.Writer, dial Dialer, desc *dispatch.Descriptor) *ucli.Command {
	return &ucli.Command{
		Name:            desc.Name,
		Usage:           desc.Doc,
		ArgsUsage:       desc.Usage,
		Description:     desc.Help,
		Category:        commands.Group(desc.Name),
		SkipFlagParsing: true,
		HideHelp:        true,
		Action: func(c *ucli.Context) error {
			return run(c, out, dial, desc)
		},
	}
}

// wantsEvents reports whether desc needs the multicast group. The kernel
// sends confirms there and only answers a request with the same command
// directly to the sender
func wantsEvents(desc *dispatch.Descriptor) bool {
	return desc.Listener || desc.Response != desc.Request
}

func run(c *ucli.Context, out io.Writer, dial Dialer, desc *dispatch.Descriptor) error {
	args := c.Args().Slice()

	// parse errors and local commands need no kernel connection
	if _, err := desc.Parse(args); err != nil {
		if errors.Is(err, dispatch.ErrHandledLocally) {
			return nil
		}
		return err
	}

	ch, err := dial(wantsEvents(desc))
	if err != nil {
		return err
	}
	defer ch.Close()

	client := &dispatch.Client{
		Channel: ch,
		Out:     out,
		Log:     log.Log,
		Timeout: c.Duration("timeout"),
	}

	return client.Run(c.Context, desc, args)
}
