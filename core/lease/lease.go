package lease

import (
	"fmt"
	"time"

	"github.com/nextdhcp/nextpan/core/mac"
)

// Lease binds a short address to the hardware address of a device
type Lease struct {
	// HwAddr is the extended address of the device
	HwAddr mac.HardwareAddr

	// Short is the short address allocated to the device
	Short mac.ShortAddr

	// GrantedAt is the time of the last (re-)association
	GrantedAt time.Time
}

func (l Lease) String() string {
	return fmt.Sprintf("%s -> %s (%s)", l.HwAddr, l.Short, l.GrantedAt.Format(time.RFC3339))
}
