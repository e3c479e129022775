package panmain

import (
	"bytes"
	"flag"
	"fmt"
	"strconv"

	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
	"github.com/nextdhcp/nextpan/core/utils/iface"
)

// classicFlags holds the single interface command line of the daemon.
// They are turned into an equivalent Panfile
type classicFlags struct {
	iface     string
	leaseFile string
	debug     int
	min       string
	max       string
}

func (f *classicFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.iface, "i", "", "Interface to coordinate, replaces the Panfile")
	fs.StringVar(&f.leaseFile, "l", "", "Lease file (default $LEASE_FILE or built-in path)")
	fs.IntVar(&f.debug, "d", 0, "Debug level, 1 or higher enables debug logging")
	fs.StringVar(&f.min, "m", "", "First dynamic short address")
	fs.StringVar(&f.max, "n", "", "Last dynamic short address")
}

// parseShort accepts decimal numbers as well as 0x prefixed hex
func parseShort(name, s string) (mac.ShortAddr, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("-%s: invalid short address %q", name, s)
	}
	return mac.ShortAddr(v), nil
}

func (f *classicFlags) panfile() ([]byte, error) {
	if err := iface.Validate(f.iface); err != nil {
		return nil, fmt.Errorf("-i: %w", err)
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s {\n", f.iface)

	level := "info"
	if f.debug > 0 {
		level = "debug"
	}
	fmt.Fprintf(&buf, "\tlog %s\n", level)

	if f.min != "" || f.max != "" {
		r := lease.DefaultRange

		if f.min != "" {
			v, err := parseShort("m", f.min)
			if err != nil {
				return nil, err
			}
			r.Min = v
		}

		if f.max != "" {
			v, err := parseShort("n", f.max)
			if err != nil {
				return nil, err
			}
			r.Max = v
		}

		if err := r.Validate(); err != nil {
			return nil, err
		}

		fmt.Fprintf(&buf, "\trange %s %s\n", r.Min, r.Max)
	}

	if f.leaseFile != "" {
		fmt.Fprintf(&buf, "\tdatabase file %q\n", f.leaseFile)
	}

	buf.WriteString("}\n")

	return buf.Bytes(), nil
}
