package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/sequence"
)

// DefaultSendTimeout limits how long Serve waits for a response to be
// accepted by the channel
const DefaultSendTimeout = 5 * time.Second

type (
	// IndicationHandler is called for each indication addressed to the
	// served interface. A non-nil request is sent back as the response
	IndicationHandler interface {
		ServeIndication(ctx context.Context, ind mac.Payload) (mac.Request, error)
	}

	// IndicationHandlerFunc adapts a function to IndicationHandler
	IndicationHandlerFunc func(ctx context.Context, ind mac.Payload) (mac.Request, error)

	// ServeOptions configures Serve
	ServeOptions struct {
		// Interface is the name of the served interface. Indications
		// for other interfaces are dropped
		Interface string

		// Handler handles all indications
		Handler IndicationHandler

		// Wake, if set, interrupts the wait for the next message so
		// AfterEach runs
		Wake <-chan struct{}

		// AfterEach is called once per loop iteration
		AfterEach func()

		// Log is used for diagnostics. Defaults to log.Log
		Log log.Interface

		// SendTimeout defaults to DefaultSendTimeout
		SendTimeout time.Duration
	}

	received struct {
		msg mac.Message
		err error
	}
)

// ServeIndication implements IndicationHandler
func (fn IndicationHandlerFunc) ServeIndication(ctx context.Context, ind mac.Payload) (mac.Request, error) {
	return fn(ctx, ind)
}

// Serve receives indications from ch until ctx is canceled or the channel
// fails. Malformed messages and handler errors are logged and do not stop
// the loop. It returns nil if ctx has been canceled
func Serve(ctx context.Context, ch channel.Channel, opts ServeOptions) error {
	l := opts.Log
	if l == nil {
		l = log.Log
	}

	sendTimeout := opts.SendTimeout
	if sendTimeout == 0 {
		sendTimeout = DefaultSendTimeout
	}

	stopped := make(chan struct{})
	defer close(stopped)

	msgs := make(chan received)
	go func() {
		for {
			m, err := ch.Receive(ctx)

			select {
			case msgs <- received{m, err}:
			case <-stopped:
				return
			}

			if err != nil && !channel.IsKernelError(err) {
				return
			}
		}
	}()

	corr := sequence.New(ch.NextSequence())

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-opts.Wake:

		case r := <-msgs:
			if r.err != nil {
				if ctx.Err() != nil {
					return nil
				}

				if channel.IsKernelError(r.err) {
					l.Warnf("%s", r.err)
					break
				}

				return r.err
			}

			if err := handle(ctx, ch, corr, opts, l, sendTimeout, r.msg); err != nil {
				return err
			}
		}

		if opts.AfterEach != nil {
			opts.AfterEach()
		}
	}
}

// handle processes a single message. Only a failure to send a response is
// returned
func handle(ctx context.Context, ch channel.Channel, corr *sequence.Correlator, opts ServeOptions, l log.Interface, sendTimeout time.Duration, m mac.Message) error {
	if corr.Classify(m.Header) == sequence.Rejected {
		l.Debugf("dropping message: %s", corr.Mismatch(m.Header))
		return nil
	}

	if m.Done {
		return nil
	}

	switch m.Command {
	case mac.CmdAssociateIndic, mac.CmdDisassociateIndic:
	default:
		l.Debugf("ignoring %s", m.Header)
		return nil
	}

	p, err := mac.Decode(m)
	if err != nil {
		l.Warnf("dropping invalid message: %s", err)
		return nil
	}

	if name := mac.InterfaceName(p); opts.Interface != "" && name != opts.Interface {
		l.Debugf("ignoring %s for interface %s", m.Command, name)
		return nil
	}

	if opts.Handler == nil {
		return nil
	}

	resp, err := opts.Handler.ServeIndication(ctx, p)
	if err != nil {
		l.Errorf("failed to handle %s: %s", m.Command, err)
	}

	if resp == nil {
		return nil
	}

	out, err := resp.Encode()
	if err != nil {
		l.Errorf("failed to encode %s: %s", resp.Command(), err)
		return nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, err := ch.Send(sendCtx, out); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return err
	}

	return nil
}
