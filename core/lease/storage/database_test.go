package storage_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/lease/storage/drivers/memory"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	hwA = mac.HardwareAddr{0, 0, 0, 0, 0, 0, 0, 0xa}
	hwB = mac.HardwareAddr{0, 0, 0, 0, 0, 0, 0, 0xb}
)

func TestDatabaseGranted(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	db := storage.NewDatabase(mem)

	require.NoError(t, db.Granted(ctx, lease.Lease{HwAddr: hwA, Short: 0x8001, GrantedAt: time.Unix(1, 0)}))

	// re-association refreshes the record
	require.NoError(t, db.Granted(ctx, lease.Lease{HwAddr: hwA, Short: 0x8001, GrantedAt: time.Unix(2, 0)}))
	l, err := mem.FindByHwAddr(ctx, hwA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), l.GrantedAt.Unix())

	// a new short address replaces the old record
	require.NoError(t, db.Granted(ctx, lease.Lease{HwAddr: hwA, Short: 0x8005, GrantedAt: time.Unix(3, 0)}))
	_, err = mem.FindByShort(ctx, 0x8001)
	assert.True(t, storage.IsNotFound(err))

	// a stale record of another device is overwritten
	require.NoError(t, db.Granted(ctx, lease.Lease{HwAddr: hwB, Short: 0x8005, GrantedAt: time.Unix(4, 0)}))
	_, err = mem.FindByHwAddr(ctx, hwA)
	assert.True(t, storage.IsNotFound(err))

	l, err = mem.FindByShort(ctx, 0x8005)
	require.NoError(t, err)
	assert.Equal(t, hwB, l.HwAddr)

	require.NoError(t, db.Released(ctx, l))
	require.NoError(t, db.Released(ctx, l), "releasing an unknown lease is not an error")

	all, err := mem.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDatabaseLoadSkipsConflicts(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.Replace(ctx, slices.Values([]lease.Lease{
		{HwAddr: hwA, Short: 0x8001},
		{HwAddr: hwB, Short: 0x8002},
	})))

	s := lease.NewStore()
	// hwB already holds 0x8002 on the running store under a different key
	require.NoError(t, s.Restore(ctx, []lease.Lease{{HwAddr: mac.HardwareAddr{0xff}, Short: 0x8002}}))

	n, err := storage.NewDatabase(mem).Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	l, err := s.Lookup(ctx, hwA)
	require.NoError(t, err)
	assert.Equal(t, mac.ShortAddr(0x8001), l.Short)

	_, err = s.Lookup(ctx, hwB)
	assert.True(t, lease.IsUnknownLease(err))
}

func TestDatabaseDump(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	db := storage.NewDatabase(mem)

	s := lease.NewStore()
	_, err := s.Allocate(ctx, hwA)
	require.NoError(t, err)
	_, err = s.Allocate(ctx, hwB)
	require.NoError(t, err)

	n, err := db.Dump(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := mem.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, hwA, all[0].HwAddr)

	// dumping does not alter the store
	count, err := s.Len(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := storage.Open("does-not-exist", nil)
	assert.Error(t, err)
	assert.Contains(t, storage.Drivers(), "memory")

	assert.Panics(t, func() {
		storage.MustRegister("memory", nil)
	})
}
