package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/channel/chantest"
	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v2"
)

type testDialer struct {
	ch     *chantest.Channel
	err    error
	dials  int
	events bool
}

func (d *testDialer) dial(events bool) (channel.Channel, error) {
	d.dials++
	d.events = events
	if d.err != nil {
		return nil, d.err
	}
	return d.ch, nil
}

func runApp(t *testing.T, d *testDialer, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	app := App{Out: &out, Dial: d.dial}.New()
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"iz"}, args...))
	return out.String(), err
}

func TestHelpIsLocal(t *testing.T) {
	d := &testDialer{}

	out, err := runApp(t, d, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Manage IEEE 802.15.4 network interfaces")
	assert.Contains(t, out, "assoc")

	out, err = runApp(t, d, "help", "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "scan")

	_, err = runApp(t, d, "help", "frobnicate")
	assert.ErrorIs(t, err, dispatch.ErrUnknownCommand)
	assert.Equal(t, dispatch.ExitFailure, dispatch.ExitCode(err))

	assert.Equal(t, 0, d.dials)
}

func TestUsageWithoutCommand(t *testing.T) {
	d := &testDialer{}

	out, err := runApp(t, d)
	require.NoError(t, err)
	assert.Contains(t, out, "Common commands")
	assert.Contains(t, out, "MAC 802.15.4 commands")
	assert.Equal(t, 0, d.dials)
}

func TestParseErrorDoesNotDial(t *testing.T) {
	d := &testDialer{}

	_, err := runApp(t, d, "scan", "wpan0", "bogus")
	var perr *dispatch.ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, dispatch.ExitFailure, dispatch.ExitCode(err))
	assert.Equal(t, 0, d.dials)
}

func TestListRoundTrip(t *testing.T) {
	ch := chantest.New(10)
	ch.Responder = func(req mac.Message) []mac.Message {
		return []mac.Message{
			chantest.Reply(req.Sequence, &mac.InterfaceInfo{Interface: "wpan0", Short: 0x0001, PANID: 0x777}, 0),
		}
	}

	d := &testDialer{ch: ch}
	out, err := runApp(t, d, "--timeout", "5s", "list", "wpan0")
	require.NoError(t, err)
	assert.Contains(t, out, "wpan0\n")
	assert.Contains(t, out, "pan 0x0777 short 0x0001")
	assert.Equal(t, 1, d.dials)
	assert.False(t, d.events)

	// the channel is closed once the command completed
	_, err = ch.Send(context.Background(), mac.Message{})
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestDialFailure(t *testing.T) {
	d := &testDialer{err: errors.New("no such family")}

	_, err := runApp(t, d, "list")
	assert.Error(t, err)
	assert.Equal(t, dispatch.ExitChannel, dispatch.ExitCode(err))
}

func TestConfirmCommandsSubscribe(t *testing.T) {
	cases := []struct {
		args []string
		conf mac.Payload
		out  string
	}{
		{
			args: []string{"assoc", "wpan0", "777", "1", "b"},
			conf: &mac.AssociateConfirm{Interface: "wpan0", Short: 0x8001, Status: mac.StatusSuccess},
			out:  "Received short address 8001, status 00\n",
		},
		{
			args: []string{"disassoc", "wpan0", "8001", "2"},
			conf: &mac.DisassociateConfirm{Interface: "wpan0", Status: mac.StatusSuccess},
			out:  "Done.\n",
		},
		{
			args: []string{"scan", "wpan0", "ed", "800", "3"},
			conf: &mac.ScanConfirm{Interface: "wpan0", Status: mac.StatusSuccess, Type: mac.ScanED, EDList: make([]byte, mac.EDListLen)},
			out:  "ED Scan results:",
		},
	}

	for _, c := range cases {
		t.Run(c.args[0], func(t *testing.T) {
			d := &testDialer{ch: chantest.New(1)}

			// confirms only reach sockets that joined the multicast group
			d.ch.Responder = func(req mac.Message) []mac.Message {
				if !d.events {
					return nil
				}
				m := chantest.Reply(0, c.conf, 0)
				m.Multicast = true
				return []mac.Message{m}
			}

			out, err := runApp(t, d, append([]string{"--timeout", "2s"}, c.args...)...)
			require.NoError(t, err)
			assert.True(t, d.events)
			assert.Contains(t, out, c.out)
		})
	}
}

func TestListenerSubscribes(t *testing.T) {
	d := &testDialer{ch: chantest.New(1)}

	_, err := runApp(t, d, "--timeout", "50ms", "event")
	assert.Equal(t, dispatch.ExitTimeout, dispatch.ExitCode(err))
	assert.True(t, d.events)
}
