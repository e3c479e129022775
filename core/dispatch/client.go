package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/sequence"
)

// Client runs one command at a time over a channel
type Client struct {
	// Channel is used to send the request and receive replies
	Channel channel.Channel

	// Out receives the command output. Defaults to os.Stdout
	Out io.Writer

	// Log is used for diagnostics. Defaults to log.Log
	Log log.Interface

	// Timeout limits the whole exchange. Zero waits forever
	Timeout time.Duration
}

func (c *Client) logger() log.Interface {
	if c.Log != nil {
		return c.Log
	}
	return log.Log
}

// Run parses args, sends the request described by desc and receives until
// the handler stops the exchange
func (c *Client) Run(ctx context.Context, desc *Descriptor, args []string) error {
	params, err := desc.Parse(args)
	if errors.Is(err, ErrHandledLocally) {
		return nil
	}
	if err != nil {
		return err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	l := c.logger().WithField("command", desc.Name)

	x := &Exchange{
		Out:    out,
		Params: params,
	}

	corr := sequence.New(c.Channel.NextSequence())
	sent := false

	if params != nil && !desc.Listener {
		msg, err := params.Build()
		if err != nil {
			return &ParseError{Command: desc.Name, Reason: err.Error()}
		}

		seq, err := c.Channel.Send(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to send %s: %w", msg.Command, err)
		}

		l.Debugf("sent %s seq=%d", msg.Command, seq)
		x.Sequence = seq
		corr = sequence.New(seq)
		sent = true
	}

	for {
		m, err := c.Channel.Receive(ctx)
		if err != nil {
			var kerr *channel.KernelError
			if errors.As(err, &kerr) {
				if sent && kerr.Sequence == x.Sequence {
					return fmt.Errorf("%w: %s", ErrCommandFailed, kerr)
				}

				l.Debugf("ignoring %s", kerr)
				continue
			}

			return err
		}

		verdict := corr.Classify(m.Header)
		if verdict == sequence.Rejected {
			l.Debugf("dropping message: %s", corr.Mismatch(m.Header))
			continue
		}

		if m.Done {
			if !sent || verdict != sequence.Accepted {
				continue
			}

			res := StopOK
			if desc.Finish != nil {
				res = desc.Finish(x)
			}

			if done, err := stop(res); done {
				return err
			}
			continue
		}

		if !desc.Listener && m.Command != desc.Response {
			l.Debugf("ignoring unrelated %s", m.Header)
			continue
		}

		p, err := mac.Decode(m)
		if err != nil {
			l.Warnf("dropping invalid message: %s", err)
			continue
		}

		if desc.Handle == nil {
			return nil
		}

		x.Count++
		if done, err := stop(desc.Handle(x, m.Header, p)); done {
			return err
		}
	}
}

func stop(res Result) (bool, error) {
	switch res {
	case StopOK:
		return true, nil
	case StopErr:
		return true, ErrCommandFailed
	}

	return false, nil
}
