package file

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/nextpan/core/lease"
	"github.com/nextdhcp/nextpan/core/mac"
)

const header = "# nextpan lease file: lease <hwaddr> <short> <granted-unix>"

// Parse reads all lease records from r. filename is only used for
// error messages. Empty lines and lines starting with # are ignored
func Parse(filename string, r io.Reader) ([]lease.Lease, error) {
	var leases []lease.Lease

	d := caddyfile.NewDispenser(filename, r)
	for d.Next() {
		if d.Val() != "lease" {
			return nil, d.Errf("unknown record %q", d.Val())
		}

		args := d.RemainingArgs()
		if len(args) != 3 {
			return nil, d.ArgErr()
		}

		hw, err := mac.ParseHardwareAddr(args[0])
		if err != nil {
			return nil, d.Err(err.Error())
		}

		short, err := mac.ParseShortAddr(args[1])
		if err != nil {
			return nil, d.Err(err.Error())
		}

		granted, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return nil, d.Errf("invalid grant time %q", args[2])
		}

		leases = append(leases, lease.Lease{
			HwAddr:    hw,
			Short:     short,
			GrantedAt: time.Unix(granted, 0),
		})
	}

	return leases, nil
}

// Write writes one record per lease to w
func Write(w io.Writer, leases []lease.Lease) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}

	for _, l := range leases {
		if _, err := fmt.Fprintf(bw, "lease %s %s %d\n", l.HwAddr, l.Short, l.GrantedAt.Unix()); err != nil {
			return err
		}
	}

	return bw.Flush()
}
