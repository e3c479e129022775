package lease

import (
	"testing"
	"time"

	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
)

func TestLease(t *testing.T) {
	l := Lease{
		HwAddr:    mac.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77},
		Short:     0x8001,
		GrantedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	assert.Equal(t, "00:11:22:33:44:55:66:77 -> 0x8001 (2024-01-02T03:04:05Z)", l.String())
}

func TestUnknownLeaseError(t *testing.T) {
	err := &UnknownLeaseError{Key: mac.LongAddress(mac.HardwareAddr{1, 2, 3, 4, 5, 6, 7, 8})}
	assert.True(t, IsUnknownLease(err))
	assert.False(t, IsUnknownLease(ErrNoAddressAvailable))
	assert.Equal(t, "no lease for 01:02:03:04:05:06:07:08", err.Error())
}
