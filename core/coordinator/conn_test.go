package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextdhcp/nextpan/core/channel"
	"github.com/nextdhcp/nextpan/core/channel/chantest"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
)

func TestConn(t *testing.T) {
	ch := chantest.New(1)
	conn := NewConn("wpan0", ch)

	assert.Same(t, ch, conn.Channel())
	assert.Equal(t, "wpan", conn.LocalAddr().Network())
	assert.Equal(t, "wpan0", conn.LocalAddr().String())
	assert.NoError(t, conn.SetDeadline(time.Now()))

	_, _, err := conn.ReadFrom(make([]byte, 10))
	assert.True(t, errors.Is(err, ErrPacketIO))

	_, err = conn.WriteTo([]byte{1}, conn.LocalAddr())
	assert.True(t, errors.Is(err, ErrPacketIO))

	assert.False(t, conn.Closed())
	assert.NoError(t, conn.Close())
	assert.True(t, conn.Closed())
	assert.NoError(t, conn.Close())

	_, err = ch.Send(context.Background(), mac.Message{})
	assert.ErrorIs(t, err, channel.ErrClosed)
}
