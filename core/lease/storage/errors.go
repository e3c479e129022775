package storage

import (
	"errors"
	"fmt"

	"github.com/nextdhcp/nextpan/core/mac"
)

type (
	// ErrDuplicateHwAddr is returned if the hardware address already has a
	// short address assigned
	ErrDuplicateHwAddr struct {
		// HwAddr is the hardware address that is used multiple times
		HwAddr mac.HardwareAddr

		// Short may hold the short address already assigned
		Short mac.ShortAddr
	}

	// ErrDuplicateShort is returned by the storage if a short address is
	// already used in a lease
	ErrDuplicateShort struct {
		// Short holds the short address that is used multiple times
		Short mac.ShortAddr

		// HwAddr may hold the hardware address of the device that has the
		// short address assigned
		HwAddr mac.HardwareAddr
	}

	// ErrNotFound is returned when the lease in question is not available
	// in the lease storage
	ErrNotFound struct {
		Key mac.Address
	}
)

var (
	// ErrShortMismatch is returned from Update if the given short address
	// does not match the one stored
	ErrShortMismatch = errors.New("expected short address does not match")
)

func (e *ErrDuplicateHwAddr) Error() string {
	return fmt.Sprintf("%s already has short address %s assigned", e.HwAddr, e.Short)
}

func (e *ErrDuplicateShort) Error() string {
	return fmt.Sprintf("%s already used by %s", e.Short, e.HwAddr)
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Key)
}

// IsNotFound returns true if err is a lease not found error
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
