// Package genl implements channel.Channel on top of the generic netlink
// family of the kernel 802.15.4 MAC.
package genl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/mac"
	"golang.org/x/sys/unix"
)

type (
	// Conn is a channel.Channel using two generic netlink sockets: one for
	// unicast requests and replies and one joined to the coordinator
	// multicast group
	Conn struct {
		nc     *netlink.Conn
		mc     *netlink.Conn
		family genetlink.Family
		events bool

		seq      atomic.Uint32
		lastSent atomic.Uint32

		msgs      chan result
		done      chan struct{}
		closeOnce sync.Once
		wg        sync.WaitGroup

		log log.Interface
	}

	result struct {
		msg mac.Message
		err error
	}

	// Option configures a Conn
	Option func(*Conn)
)

// WithLogger sets the logger used for dropped messages
func WithLogger(l log.Interface) Option {
	return func(c *Conn) {
		c.log = l
	}
}

// WithoutEvents disables the multicast subscription. Only replies to our
// own requests will be received
func WithoutEvents() Option {
	return func(c *Conn) {
		c.events = false
	}
}

// Dial resolves the 802.15.4 MAC family, joins the coordinator multicast
// group and starts receiving
func Dial(opts ...Option) (*Conn, error) {
	nc, err := netlink.Dial(unix.NETLINK_GENERIC, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open generic netlink socket: %w", err)
	}

	family, err := genetlink.NewConn(nc).GetFamily(mac.FamilyName)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to resolve family %q: %w", mac.FamilyName, err)
	}

	c := &Conn{
		nc:     nc,
		family: family,
		msgs:   make(chan result, 16),
		done:   make(chan struct{}),
		events: true,
		log:    log.Log,
	}

	// libnl style: start with the current time so replies to a previous
	// process are not mistaken for ours
	start := uint32(time.Now().Unix())
	if start == 0 {
		start = 1
	}
	c.seq.Store(start)
	c.lastSent.Store(start - 1)

	for _, opt := range opts {
		opt(c)
	}

	if c.events {
		if err := c.subscribe(); err != nil {
			nc.Close()
			return nil, err
		}
	}

	c.wg.Add(1)
	go c.pump(c.nc, false)

	if c.mc != nil {
		c.wg.Add(1)
		go c.pump(c.mc, true)
	}

	return c, nil
}

func (c *Conn) subscribe() error {
	var group *genetlink.MulticastGroup
	for i := range c.family.Groups {
		if c.family.Groups[i].Name == mac.CoordinatorGroup {
			group = &c.family.Groups[i]
			break
		}
	}
	if group == nil {
		return fmt.Errorf("family %q has no multicast group %q", mac.FamilyName, mac.CoordinatorGroup)
	}

	mc, err := netlink.Dial(unix.NETLINK_GENERIC, nil)
	if err != nil {
		return fmt.Errorf("failed to open multicast socket: %w", err)
	}

	if err := mc.JoinGroup(group.ID); err != nil {
		mc.Close()
		return fmt.Errorf("failed to join group %q: %w", group.Name, err)
	}

	c.mc = mc
	return nil
}

// NextSequence implements channel.Channel
func (c *Conn) NextSequence() uint32 {
	return c.seq.Load()
}

// Send implements channel.Channel
func (c *Conn) Send(ctx context.Context, m mac.Message) (uint32, error) {
	select {
	case <-c.done:
		return 0, channel.ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	seq := c.seq.Add(1) - 1
	if seq == 0 {
		// netlink replaces a zero sequence with its own counter
		seq = c.seq.Add(1) - 1
	}

	data, err := genetlink.Message{
		Header: genetlink.Header{
			Command: uint8(m.Command),
			Version: m.Version,
		},
		Data: m.Attributes,
	}.MarshalBinary()
	if err != nil {
		return 0, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.nc.SetWriteDeadline(deadline); err != nil {
			return 0, err
		}
		defer c.nc.SetWriteDeadline(time.Time{})
	}

	_, err = c.nc.Send(netlink.Message{
		Header: netlink.Header{
			Type:     netlink.HeaderType(c.family.ID),
			Flags:    m.Flags | netlink.Request,
			Sequence: seq,
		},
		Data: data,
	})
	if err != nil {
		return 0, err
	}

	c.lastSent.Store(seq)

	return seq, nil
}

// Receive implements channel.Channel
func (c *Conn) Receive(ctx context.Context) (mac.Message, error) {
	select {
	case <-ctx.Done():
		return mac.Message{}, ctx.Err()
	case r, ok := <-c.msgs:
		if !ok {
			return mac.Message{}, channel.ErrClosed
		}
		return r.msg, r.err
	}
}

// Close implements channel.Channel
func (c *Conn) Close() error {
	var err error

	c.closeOnce.Do(func() {
		close(c.done)

		err = c.nc.Close()
		if c.mc != nil {
			if merr := c.mc.Close(); err == nil {
				err = merr
			}
		}

		go func() {
			c.wg.Wait()
			close(c.msgs)
		}()
	})

	return err
}

func (c *Conn) deliver(r result) bool {
	select {
	case c.msgs <- r:
		return true
	case <-c.done:
		return false
	}
}

// pump reads from conn until it is closed and forwards everything to
// Receive
func (c *Conn) pump(conn *netlink.Conn, multicast bool) {
	defer c.wg.Done()

	for {
		msgs, err := conn.Receive()
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}

			if errors.Is(err, unix.ENOBUFS) {
				// the kernel dropped multicast messages because we
				// were too slow. Nothing we can do about it
				c.log.Warnf("receive buffer overrun, messages have been dropped")
				continue
			}

			if kerr := c.kernelError(err); kerr != nil {
				if !c.deliver(result{err: kerr}) {
					return
				}
				continue
			}

			c.deliver(result{err: err})
			return
		}

		if len(msgs) == 0 {
			if !multicast {
				// a dump without any entries consists of the done
				// marker only, which netlink already removed
				if !c.deliver(result{msg: mac.DoneMessage(c.lastSent.Load())}) {
					return
				}
			}
			continue
		}

		for _, nm := range msgs {
			m, ok := c.convert(nm, multicast)
			if !ok {
				continue
			}

			if !c.deliver(result{msg: m}) {
				return
			}
		}

		if last := msgs[len(msgs)-1]; !multicast && last.Header.Flags&netlink.Multi != 0 {
			if !c.deliver(result{msg: mac.DoneMessage(last.Header.Sequence)}) {
				return
			}
		}
	}
}

func (c *Conn) convert(nm netlink.Message, multicast bool) (mac.Message, bool) {
	if nm.Header.Type != netlink.HeaderType(c.family.ID) {
		// acknowledgements and other control messages
		return mac.Message{}, false
	}

	var gm genetlink.Message
	if err := gm.UnmarshalBinary(nm.Data); err != nil {
		c.log.Warnf("dropping malformed generic netlink message (seq=%d): %s", nm.Header.Sequence, err)
		return mac.Message{}, false
	}

	return mac.Message{
		Header: mac.Header{
			Command:   mac.Command(gm.Header.Command),
			Version:   gm.Header.Version,
			Sequence:  nm.Header.Sequence,
			Flags:     nm.Header.Flags,
			Multicast: multicast,
		},
		Attributes: gm.Data,
	}, true
}

// kernelError returns a *channel.KernelError if err has been produced by
// an error message of the kernel rather than by the socket
func (c *Conn) kernelError(err error) error {
	var oerr *netlink.OpError
	if !errors.As(err, &oerr) {
		return nil
	}

	errno, ok := oerr.Err.(syscall.Errno)
	if !ok {
		return nil
	}

	// only one request is outstanding at a time, the error belongs to
	// the last one we sent
	return &channel.KernelError{
		Sequence: c.lastSent.Load(),
		Errno:    errno,
	}
}

// compile time check
var _ channel.Channel = &Conn{}
