package commands

import (
	"fmt"
	"strconv"

	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
)

func scanCommand() *dispatch.Descriptor {
	d := &dispatch.Descriptor{
		Name:     "scan",
		Usage:    "<iface> <ed|active|passive|orphan> <channels> <duration>",
		Doc:      "Perform network scanning on specified channels.",
		Help:     "channels is a hexadecimal channel mask, duration the decimal scan duration exponent.",
		Request:  mac.CmdScanReq,
		Response: mac.CmdScanConf,
	}

	d.Parse = func(args []string) (dispatch.Params, error) {
		if len(args) != 4 {
			return nil, d.Errorf("incorrect number of arguments")
		}

		typ, err := mac.ParseScanType(args[1])
		if err != nil {
			return nil, d.Errorf("%s", err)
		}

		channels, err := parseHex(args[2], 32)
		if err != nil {
			return nil, d.Errorf("bad channels %s", args[2])
		}

		duration, err := strconv.ParseUint(args[3], 10, 8)
		if err != nil {
			return nil, d.Errorf("bad duration %s", args[3])
		}

		return dispatch.RequestParams{Request: &mac.ScanRequest{
			Interface: args[0],
			Type:      typ,
			Channels:  uint32(channels),
			Duration:  uint8(duration),
		}}, nil
	}

	d.Handle = func(x *dispatch.Exchange, h mac.Header, p mac.Payload) dispatch.Result {
		conf := p.(*mac.ScanConfirm)

		if conf.Status != mac.StatusSuccess {
			fmt.Fprintf(x.Out, "Scan failed: %02x\n", uint8(conf.Status))
		}

		switch conf.Type {
		case mac.ScanED:
			if conf.EDList == nil {
				return dispatch.StopErr
			}

			fmt.Fprintln(x.Out, "ED Scan results:")
			for ch, ed := range conf.EDList {
				fmt.Fprintf(x.Out, "  Ch%2d --- ED = %02x\n", ch, ed)
			}
			return dispatch.StopOK

		case mac.ScanActive:
			fmt.Fprintln(x.Out, "Started active (beacons) scan...")
			return dispatch.Continue
		}

		fmt.Fprintf(x.Out, "Unsupported scan type: %d\n", uint8(conf.Type))
		return dispatch.StopOK
	}

	return d
}
