package lease

import (
	"errors"
	"fmt"

	"github.com/nextdhcp/nextpan/core/mac"
)

// DefaultRange is the range used for dynamic short address allocation.
// Addresses below it are left for static configuration, the addresses
// above it are protocol sentinels
var DefaultRange = Range{Min: 0x8001, Max: 0xfffd}

// Range is an inclusive range of short addresses
type Range struct {
	Min mac.ShortAddr
	Max mac.ShortAddr
}

// Len returns the number of addresses inside the range
func (r Range) Len() int {
	if r.Max < r.Min {
		return 0
	}

	return int(r.Max) - int(r.Min) + 1
}

// Contains checks if s is part of the range
func (r Range) Contains(s mac.ShortAddr) bool {
	return r.Min <= s && s <= r.Max
}

// Next returns the address following s, wrapping to Min after Max
func (r Range) Next(s mac.ShortAddr) mac.ShortAddr {
	if s >= r.Max || s < r.Min {
		return r.Min
	}

	return s + 1
}

// Validate checks that r is usable for allocation
func (r Range) Validate() error {
	if r.Max < r.Min {
		return fmt.Errorf("invalid range %s: start is above end", r)
	}

	if r.Min == 0 {
		return errors.New("short address 0x0000 cannot be allocated")
	}

	if r.Max >= mac.ShortUnassigned {
		return fmt.Errorf("invalid range %s: %s and %s are reserved", r, mac.ShortUnassigned, mac.ShortBroadcast)
	}

	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Min, r.Max)
}
