package coordinator

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/nextdhcp/nextpan/core/channel"
)

// ErrPacketIO is returned by the packet methods of Conn. Messages are
// exchanged through Conn.Channel
var ErrPacketIO = errors.New("packet I/O is not supported on a control channel")

// Addr is the net.Addr of a served interface
type Addr struct {
	Interface string
}

// Network returns "wpan" and implements net.Addr
func (a *Addr) Network() string {
	return "wpan"
}

// String returns the name of the interface
func (a *Addr) String() string {
	return a.Interface
}

// Conn wraps the control channel of an interface so it can be handed to
// caddy as a net.PacketConn
type Conn struct {
	ch     channel.Channel
	addr   *Addr
	closed atomic.Bool
}

// NewConn returns a new Conn for the interface iface using ch
func NewConn(iface string, ch channel.Channel) *Conn {
	return &Conn{
		ch:   ch,
		addr: &Addr{Interface: iface},
	}
}

// Channel returns the wrapped control channel
func (c *Conn) Channel() channel.Channel {
	return c.ch
}

// Closed returns true if Close has been called
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

// ReadFrom implements net.PacketConn
func (c *Conn) ReadFrom(b []byte) (int, net.Addr, error) {
	return 0, nil, c.opError("read", ErrPacketIO)
}

// WriteTo implements net.PacketConn
func (c *Conn) WriteTo(b []byte, addr net.Addr) (int, error) {
	return 0, c.opError("write", ErrPacketIO)
}

// Close closes the control channel
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	return c.ch.Close()
}

// LocalAddr returns the address of the served interface
func (c *Conn) LocalAddr() net.Addr {
	return c.addr
}

// SetDeadline implements net.PacketConn. Deadlines are passed to the
// control channel through contexts and are ignored here
func (c *Conn) SetDeadline(t time.Time) error { return nil }

// SetReadDeadline implements net.PacketConn
func (c *Conn) SetReadDeadline(t time.Time) error { return nil }

// SetWriteDeadline implements net.PacketConn
func (c *Conn) SetWriteDeadline(t time.Time) error { return nil }

func (c *Conn) opError(op string, err error) error {
	return &net.OpError{
		Op:   op,
		Net:  c.addr.Network(),
		Addr: c.addr,
		Err:  err,
	}
}

// Compile time check
var _ net.PacketConn = &Conn{}
