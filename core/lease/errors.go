package lease

import (
	"errors"
	"fmt"

	"github.com/nextdhcp/nextpan/core/mac"
)

var (
	// ErrNoAddressAvailable is returned by Allocate when every address of
	// the range is leased
	ErrNoAddressAvailable = errors.New("no short address available")
)

// UnknownLeaseError is returned when releasing or looking up a lease that
// does not exist
type UnknownLeaseError struct {
	// Key is the address that has been searched for
	Key mac.Address
}

func (e *UnknownLeaseError) Error() string {
	return fmt.Sprintf("no lease for %s", e.Key)
}

// IsUnknownLease returns true if err is an *UnknownLeaseError
func IsUnknownLease(err error) bool {
	var ule *UnknownLeaseError
	return errors.As(err, &ule)
}
