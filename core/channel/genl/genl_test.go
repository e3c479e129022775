package genl

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/apex/log"
	"github.com/mdlayher/genetlink"
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nltest"
	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const familyID = 0x1a

func testConn(fn nltest.Func) *Conn {
	c := &Conn{
		family: genetlink.Family{ID: familyID, Name: mac.FamilyName, Version: mac.Version},
		done:   make(chan struct{}),
		log:    log.Log,
	}
	if fn != nil {
		c.nc = nltest.Dial(fn)
	}
	c.seq.Store(41)

	return c
}

func TestSend(t *testing.T) {
	var sent []netlink.Message
	c := testConn(func(req []netlink.Message) ([]netlink.Message, error) {
		sent = append(sent, req...)
		return nil, nil
	})
	defer c.nc.Close()

	msg, err := (&mac.ListRequest{}).Encode()
	require.NoError(t, err)

	assert.Equal(t, uint32(41), c.NextSequence())
	seq, err := c.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, uint32(41), seq)
	assert.Equal(t, uint32(42), c.NextSequence())
	assert.Equal(t, uint32(41), c.lastSent.Load())

	require.Len(t, sent, 1)
	assert.Equal(t, netlink.HeaderType(familyID), sent[0].Header.Type)
	assert.Equal(t, uint32(41), sent[0].Header.Sequence)
	assert.NotZero(t, sent[0].Header.Flags&netlink.Request)
	assert.NotZero(t, sent[0].Header.Flags&netlink.Dump)

	var gm genetlink.Message
	require.NoError(t, gm.UnmarshalBinary(sent[0].Data))
	assert.Equal(t, uint8(mac.CmdListIface), gm.Header.Command)
	assert.Equal(t, uint8(mac.Version), gm.Header.Version)
}

func TestSendSkipsZero(t *testing.T) {
	var seqs []uint32
	c := testConn(func(req []netlink.Message) ([]netlink.Message, error) {
		seqs = append(seqs, req[0].Header.Sequence)
		return nil, nil
	})
	defer c.nc.Close()
	c.seq.Store(0)

	msg, err := (&mac.ListRequest{Interface: "wpan0"}).Encode()
	require.NoError(t, err)

	seq, err := c.Send(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), seq)
	assert.Equal(t, []uint32{1}, seqs)
}

func TestSendClosed(t *testing.T) {
	c := testConn(nil)
	close(c.done)

	_, err := c.Send(context.Background(), mac.Message{})
	assert.ErrorIs(t, err, channel.ErrClosed)
}

func TestConvert(t *testing.T) {
	c := testConn(nil)

	data, err := genetlink.Message{
		Header: genetlink.Header{Command: uint8(mac.CmdAssociateIndic), Version: 1},
		Data:   []byte{4, 0, 1, 0},
	}.MarshalBinary()
	require.NoError(t, err)

	m, ok := c.convert(netlink.Message{
		Header: netlink.Header{Type: familyID, Sequence: 9, Flags: netlink.Multi},
		Data:   data,
	}, true)
	require.True(t, ok)
	assert.Equal(t, mac.CmdAssociateIndic, m.Command)
	assert.Equal(t, uint8(1), m.Version)
	assert.Equal(t, uint32(9), m.Sequence)
	assert.True(t, m.Multicast)
	assert.True(t, m.Multipart())
	assert.Equal(t, []byte{4, 0, 1, 0}, m.Attributes)

	// control messages of other families are dropped
	_, ok = c.convert(netlink.Message{Header: netlink.Header{Type: netlink.Error}}, false)
	assert.False(t, ok)

	// so are truncated generic netlink headers
	_, ok = c.convert(netlink.Message{Header: netlink.Header{Type: familyID}, Data: []byte{1}}, false)
	assert.False(t, ok)
}

func TestKernelError(t *testing.T) {
	c := testConn(nil)
	c.lastSent.Store(77)

	err := c.kernelError(&netlink.OpError{Op: "receive", Err: unix.EOPNOTSUPP})
	var kerr *channel.KernelError
	require.True(t, errors.As(err, &kerr))
	assert.Equal(t, uint32(77), kerr.Sequence)
	assert.True(t, errors.Is(err, unix.EOPNOTSUPP))

	// socket errors are not kernel replies
	assert.Nil(t, c.kernelError(&netlink.OpError{Op: "receive", Err: os.NewSyscallError("recvmsg", unix.EBADF)}))
	assert.Nil(t, c.kernelError(errors.New("something else")))
}
