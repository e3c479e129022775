package mac

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// HardwareAddr is the 64 bit extended address of a device
type HardwareAddr [8]byte

// ParseHardwareAddr parses a 16 digit hexadecimal hardware address. Bytes
// may be separated by ':' or '.', but separators must not split a byte
func ParseHardwareAddr(s string) (HardwareAddr, error) {
	var addr HardwareAddr

	digits := make([]byte, 0, 16)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == ':' || ch == '.' {
			if len(digits)%2 != 0 || len(digits) == 0 {
				return addr, fmt.Errorf("invalid hardware address %q", s)
			}
			continue
		}

		digits = append(digits, ch)
	}

	if len(digits) != 16 {
		return addr, fmt.Errorf("invalid hardware address %q: expected 16 hex digits", s)
	}

	if _, err := hex.Decode(addr[:], digits); err != nil {
		return addr, fmt.Errorf("invalid hardware address %q: %w", s, err)
	}

	return addr, nil
}

func (a HardwareAddr) String() string {
	var b strings.Builder
	for i, v := range a {
		if i > 0 {
			b.WriteByte(':')
		}
		fmt.Fprintf(&b, "%02x", v)
	}

	return b.String()
}

// ShortAddr is a 16 bit short address
type ShortAddr uint16

const (
	// ShortUnassigned tells an associating device that it must use its
	// hardware address
	ShortUnassigned ShortAddr = 0xfffe

	// ShortBroadcast is the broadcast short address
	ShortBroadcast ShortAddr = 0xffff

	// ShortAllocFailed is sent in an association response when no short
	// address could be allocated. It shares its value with ShortBroadcast
	ShortAllocFailed = ShortBroadcast
)

// ParseShortAddr parses a hexadecimal short address with an optional 0x
// prefix
func ParseShortAddr(s string) (ShortAddr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid short address %q", s)
	}

	return ShortAddr(v), nil
}

// Reserved reports whether s is one of the protocol sentinels
func (s ShortAddr) Reserved() bool {
	return s == ShortUnassigned || s == ShortBroadcast
}

func (s ShortAddr) String() string {
	return fmt.Sprintf("0x%04x", uint16(s))
}

// AddrMode tells which member of an Address is valid
type AddrMode uint8

// Addressing modes as used by the 802.15.4 frame format
const (
	AddrNone  AddrMode = 0
	AddrShort AddrMode = 2
	AddrLong  AddrMode = 3
)

// Address is either a short or a hardware address
type Address struct {
	Mode     AddrMode
	Short    ShortAddr
	Hardware HardwareAddr
}

// LongAddress returns an Address for hw
func LongAddress(hw HardwareAddr) Address {
	return Address{Mode: AddrLong, Hardware: hw}
}

// ShortAddress returns an Address for s
func ShortAddress(s ShortAddr) Address {
	return Address{Mode: AddrShort, Short: s}
}

// ParseAddress parses a device address as accepted on the command line. A
// hardware address is written with a leading 'h' (h0011223344556677),
// anything else is taken as a hexadecimal short address
func ParseAddress(s string) (Address, error) {
	if strings.HasPrefix(s, "h") || strings.HasPrefix(s, "H") {
		hw, err := ParseHardwareAddr(s[1:])
		if err != nil {
			return Address{}, err
		}

		return LongAddress(hw), nil
	}

	short, err := ParseShortAddr(s)
	if err != nil {
		return Address{}, err
	}

	return ShortAddress(short), nil
}

func (a Address) String() string {
	switch a.Mode {
	case AddrShort:
		return a.Short.String()
	case AddrLong:
		return a.Hardware.String()
	}

	return "<none>"
}
