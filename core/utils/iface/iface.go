// Package iface contains utility methods for interacting with
// network interfaces
package iface

import (
	"fmt"
	"net"
	"strings"
	"unicode"
)

// MaxNameLen is the maximum length of an interface name (IFNAMSIZ - 1)
const MaxNameLen = 15

// Validate checks if name can be used as the name of a network
// interface
func Validate(name string) error {
	if name == "" {
		return fmt.Errorf("interface name must not be empty")
	}

	if len(name) > MaxNameLen {
		return fmt.Errorf("interface name %q is too long (max %d characters)", name, MaxNameLen)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("invalid interface name %q", name)
	}

	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, ':') {
		return fmt.Errorf("interface name %q contains an invalid character", name)
	}

	for _, r := range name {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return fmt.Errorf("interface name %q contains an invalid character", name)
		}
	}

	return nil
}

// Index returns the kernel index of the network interface name. It
// returns 0 if the interface does not exist
func Index(name string) int {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0
	}

	return iface.Index
}

// Describe returns a short human readable description of the network
// interface name as it is currently known to the kernel
func Describe(name string) string {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return fmt.Sprintf("%s (not present)", name)
	}

	state := "down"
	if iface.Flags&net.FlagUp != 0 {
		state = "up"
	}

	return fmt.Sprintf("%s (index %d, %s)", iface.Name, iface.Index, state)
}
