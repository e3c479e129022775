package storage

import (
	"context"
	"iter"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
)

// LeaseStorage provides persistence for short address leases. Implementations
// don't need to care about allocation mechanics and just need to keep leases
// across service and host restarts. Storage implementations must not
// interpret the GrantedAt member. They are only required to ensure hardware
// and short addresses are not used more than once (unique index)
type LeaseStorage interface {
	// Create stores a unique lease. Implementations MUST check that neither
	// the hardware nor the short address is already used inside the database
	Create(ctx context.Context, l lease.Lease) error

	// Update updates the GrantedAt time of an existing lease. The operation
	// should only be performed if the stored short address matches.
	Update(ctx context.Context, l lease.Lease) error

	// Delete deletes the lease of a hardware address
	Delete(ctx context.Context, hw mac.HardwareAddr) error

	// FindByHwAddr searches for the lease of the given hardware address
	FindByHwAddr(ctx context.Context, hw mac.HardwareAddr) (lease.Lease, error)

	// FindByShort searches for the lease of the given short address
	FindByShort(ctx context.Context, short mac.ShortAddr) (lease.Lease, error)

	// List returns all leases available in the storage ordered by short
	// address
	List(ctx context.Context) ([]lease.Lease, error)

	// Replace atomically replaces the content of the storage with leases.
	// If leases violates the unique index the storage must be left
	// untouched
	Replace(ctx context.Context, leases iter.Seq[lease.Lease]) error

	// Close releases all resources held by the storage
	Close() error
}
