// Package chantest provides an in-memory channel.Channel for tests.
package chantest

import (
	"context"
	"sync"

	"github.com/mdlayher/netlink"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/mac"
)

type (
	// Responder plays the kernel's part. It is called for each message
	// sent through the channel and returns the replies to deliver
	Responder func(req mac.Message) []mac.Message

	// Channel is an in-memory channel.Channel. Replies and indications
	// are injected by the test
	Channel struct {
		l      sync.Mutex
		seq    uint32
		sent   []mac.Message
		notify chan struct{}

		inbox  chan result
		closed chan struct{}
		once   sync.Once

		// Responder, if set, is called for every sent message
		Responder Responder

		// SendErr, if set, is returned by Send
		SendErr error
	}

	result struct {
		msg mac.Message
		err error
	}
)

// New returns a new channel whose first request will use sequence
// number start
func New(start uint32) *Channel {
	return &Channel{
		seq:    start,
		notify: make(chan struct{}, 1),
		inbox:  make(chan result, 256),
		closed: make(chan struct{}),
	}
}

// NextSequence implements channel.Channel
func (c *Channel) NextSequence() uint32 {
	c.l.Lock()
	defer c.l.Unlock()

	return c.seq
}

// Send implements channel.Channel
func (c *Channel) Send(ctx context.Context, m mac.Message) (uint32, error) {
	select {
	case <-c.closed:
		return 0, channel.ErrClosed
	default:
	}

	c.l.Lock()
	if c.SendErr != nil {
		c.l.Unlock()
		return 0, c.SendErr
	}

	m.Sequence = c.seq
	m.Flags |= netlink.Request
	c.seq++
	c.sent = append(c.sent, m)
	responder := c.Responder
	c.l.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}

	if responder != nil {
		for _, reply := range responder(m) {
			c.Inject(reply)
		}
	}

	return m.Sequence, nil
}

// Receive implements channel.Channel
func (c *Channel) Receive(ctx context.Context) (mac.Message, error) {
	select {
	case r := <-c.inbox:
		return r.msg, r.err
	default:
	}

	select {
	case <-ctx.Done():
		return mac.Message{}, ctx.Err()
	case <-c.closed:
		return mac.Message{}, channel.ErrClosed
	case r := <-c.inbox:
		return r.msg, r.err
	}
}

// Close implements channel.Channel
func (c *Channel) Close() error {
	c.once.Do(func() {
		close(c.closed)
	})
	return nil
}

// Inject queues m for Receive
func (c *Channel) Inject(m mac.Message) {
	c.inbox <- result{msg: m}
}

// InjectError makes the next Receive return err
func (c *Channel) InjectError(err error) {
	c.inbox <- result{err: err}
}

// Indicate queues p as a multicast indication
func (c *Channel) Indicate(p mac.Payload) error {
	m, err := mac.EncodeIndication(p)
	if err != nil {
		return err
	}

	m.Multicast = true
	c.Inject(m)

	return nil
}

// Reply builds a unicast reply with sequence number seq
func Reply(seq uint32, p mac.Payload, flags netlink.HeaderFlags) mac.Message {
	m, err := mac.EncodeIndication(p)
	if err != nil {
		panic(err)
	}

	m.Sequence = seq
	m.Flags = flags

	return m
}

// Sent returns a copy of all messages sent so far
func (c *Channel) Sent() []mac.Message {
	c.l.Lock()
	defer c.l.Unlock()

	return append([]mac.Message(nil), c.sent...)
}

// WaitSent blocks until at least n messages have been sent or ctx is
// done
func (c *Channel) WaitSent(ctx context.Context, n int) ([]mac.Message, error) {
	for {
		sent := c.Sent()
		if len(sent) >= n {
			return sent, nil
		}

		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		case <-c.notify:
		}
	}
}

// compile time check
var _ channel.Channel = &Channel{}
