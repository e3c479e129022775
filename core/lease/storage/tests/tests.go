package tests

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/lease/storage"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	// StorageFactory should create a new storage instance
	StorageFactory func(ctx context.Context) storage.LeaseStorage

	// TeardownFunc is invoked after each test case
	TeardownFunc func(storage.LeaseStorage)
)

var (
	hw1 = mac.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0x00, 0x00, 0x00, 0x01}
	hw2 = mac.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0x00, 0x00, 0x00, 0x02}
	hw3 = mac.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0x00, 0x00, 0x00, 0x03}
)

// Run executes a test suite to ensure storage implementations match the
// requirements
func Run(t *testing.T, factory StorageFactory, teardown TeardownFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	instance := factory(ctx)
	require.NotNil(t, instance)
	defer teardown(instance)

	count := func() int {
		all, err := instance.List(ctx)
		require.NoError(t, err)

		return len(all)
	}

	granted := time.Unix(1700000000, 0)

	t.Run("Create", func(t *testing.T) {
		err := instance.Create(ctx, lease.Lease{HwAddr: hw1, Short: 0x8001, GrantedAt: granted})
		assert.NoError(t, err, "adding a unique lease must work")
		assert.Equal(t, 1, count())

		err = instance.Create(ctx, lease.Lease{HwAddr: hw1, Short: 0x8001, GrantedAt: granted})
		assert.Error(t, err, "must not allow re-creating of an existing pair")
		assert.Equal(t, 1, count())

		// reusing the short address is not allowed
		err = instance.Create(ctx, lease.Lease{HwAddr: hw2, Short: 0x8001, GrantedAt: granted})
		var eds *storage.ErrDuplicateShort
		require.True(t, errors.As(err, &eds), "invalid error type returned: %v", err)
		assert.Equal(t, mac.ShortAddr(0x8001), eds.Short)
		assert.Equal(t, hw1, eds.HwAddr)
		assert.Equal(t, 1, count())

		// reusing the hardware address is not allowed
		err = instance.Create(ctx, lease.Lease{HwAddr: hw1, Short: 0x8002, GrantedAt: granted})
		var edh *storage.ErrDuplicateHwAddr
		require.True(t, errors.As(err, &edh), "invalid error type returned: %v", err)
		assert.Equal(t, hw1, edh.HwAddr)
		assert.Equal(t, mac.ShortAddr(0x8001), edh.Short)
		assert.Equal(t, 1, count())

		err = instance.Create(ctx, lease.Lease{HwAddr: hw3, Short: 0x8003, GrantedAt: granted})
		assert.NoError(t, err, "adding a unique lease must work")
		assert.Equal(t, 2, count())
	})

	t.Run("FindByHwAddr", func(t *testing.T) {
		l, err := instance.FindByHwAddr(ctx, hw1)
		assert.NoError(t, err)
		assert.Equal(t, mac.ShortAddr(0x8001), l.Short)
		assert.Equal(t, granted.Unix(), l.GrantedAt.Unix())

		_, err = instance.FindByHwAddr(ctx, hw2)
		assert.True(t, storage.IsNotFound(err))
	})

	t.Run("FindByShort", func(t *testing.T) {
		l, err := instance.FindByShort(ctx, 0x8003)
		assert.NoError(t, err)
		assert.Equal(t, hw3, l.HwAddr)
		assert.Equal(t, granted.Unix(), l.GrantedAt.Unix())

		_, err = instance.FindByShort(ctx, 0x8002)
		assert.True(t, storage.IsNotFound(err))
	})

	t.Run("Update", func(t *testing.T) {
		later := granted.Add(time.Hour)
		err := instance.Update(ctx, lease.Lease{HwAddr: hw1, Short: 0x8001, GrantedAt: later})
		assert.NoError(t, err)
		assert.Equal(t, 2, count())

		l, err := instance.FindByHwAddr(ctx, hw1)
		assert.NoError(t, err)
		assert.Equal(t, later.Unix(), l.GrantedAt.Unix())

		// hardware and short address must match for the update
		err = instance.Update(ctx, lease.Lease{HwAddr: hw1, Short: 0x8003, GrantedAt: later})
		assert.Error(t, err)

		// the lease must exist
		err = instance.Update(ctx, lease.Lease{HwAddr: hw2, Short: 0x8002, GrantedAt: later})
		assert.True(t, storage.IsNotFound(err))
		assert.Equal(t, 2, count())
	})

	t.Run("List", func(t *testing.T) {
		all, err := instance.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, hw1, all[0].HwAddr)
		assert.Equal(t, hw3, all[1].HwAddr)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.NoError(t, instance.Delete(ctx, hw1))
		assert.Equal(t, 1, count())

		assert.True(t, storage.IsNotFound(instance.Delete(ctx, hw2)))
		assert.Equal(t, 1, count())

		// the short address is free again
		assert.NoError(t, instance.Create(ctx, lease.Lease{HwAddr: hw2, Short: 0x8001, GrantedAt: granted}))
		assert.Equal(t, 2, count())
	})

	t.Run("Replace", func(t *testing.T) {
		replacement := []lease.Lease{
			{HwAddr: hw3, Short: 0x9000, GrantedAt: granted},
			{HwAddr: hw1, Short: 0x8001, GrantedAt: granted},
		}

		err := instance.Replace(ctx, slices.Values(replacement))
		require.NoError(t, err)

		all, err := instance.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, hw1, all[0].HwAddr)
		assert.Equal(t, mac.ShortAddr(0x9000), all[1].Short)

		_, err = instance.FindByHwAddr(ctx, hw2)
		assert.True(t, storage.IsNotFound(err))

		// conflicting input leaves the storage untouched
		err = instance.Replace(ctx, slices.Values([]lease.Lease{
			{HwAddr: hw2, Short: 0x8002},
			{HwAddr: hw2, Short: 0x8003},
		}))
		assert.Error(t, err)
		assert.Equal(t, 2, count())

		l, err := instance.FindByShort(ctx, 0x9000)
		assert.NoError(t, err)
		assert.Equal(t, hw3, l.HwAddr)

		// an empty snapshot clears the storage
		require.NoError(t, instance.Replace(ctx, slices.Values([]lease.Lease(nil))))
		assert.Equal(t, 0, count())
	})
}
