package commands

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
)

// DefaultCapability is announced by assoc. The short keyword adds
// mac.CapAllocShort
const DefaultCapability = mac.CapFFD | mac.CapRxOnWhenIdle

func assocCommand() *dispatch.Descriptor {
	d := &dispatch.Descriptor{
		Name:     "assoc",
		Usage:    "<iface> <pan> <coord> <chan> ['short']",
		Doc:      "Associate with a given network via coordinator.",
		Help:     "pan and chan are hexadecimal. coord is a hexadecimal short address or h followed by a hardware address.",
		Request:  mac.CmdAssociateReq,
		Response: mac.CmdAssociateConf,
	}

	d.Parse = func(args []string) (dispatch.Params, error) {
		if len(args) != 4 && len(args) != 5 {
			return nil, d.Errorf("incorrect number of arguments")
		}

		pan, err := parseHex(args[1], 16)
		if err != nil {
			return nil, d.Errorf("bad PAN ID %s", args[1])
		}

		coord, err := mac.ParseAddress(args[2])
		if err != nil {
			return nil, d.Errorf("bad coordinator address %s", args[2])
		}

		ch, err := parseHex(args[3], 8)
		if err != nil {
			return nil, d.Errorf("bad channel number %s", args[3])
		}

		capability := DefaultCapability
		if len(args) == 5 {
			if args[4] != "short" {
				return nil, d.Errorf("unexpected argument %s", args[4])
			}
			capability |= mac.CapAllocShort
		}

		return dispatch.RequestParams{Request: &mac.AssociateRequest{
			Interface:  args[0],
			PANID:      uint16(pan),
			Coord:      coord,
			Channel:    uint8(ch),
			Capability: capability,
		}}, nil
	}

	d.Handle = func(x *dispatch.Exchange, h mac.Header, p mac.Payload) dispatch.Result {
		conf := p.(*mac.AssociateConfirm)
		fmt.Fprintf(x.Out, "Received short address %04x, status %02x\n", uint16(conf.Short), uint8(conf.Status))
		return dispatch.StopOK
	}

	return d
}

func disassocCommand() *dispatch.Descriptor {
	d := &dispatch.Descriptor{
		Name:     "disassoc",
		Usage:    "<iface> <addr> <reason>",
		Doc:      "Disassociate from a network.",
		Help:     "addr is a hexadecimal short address or h followed by a hardware address, reason is hexadecimal.",
		Request:  mac.CmdDisassociateReq,
		Response: mac.CmdDisassociateConf,
	}

	d.Parse = func(args []string) (dispatch.Params, error) {
		if len(args) != 3 {
			return nil, d.Errorf("incorrect number of arguments")
		}

		dest, err := mac.ParseAddress(args[1])
		if err != nil {
			return nil, d.Errorf("bad destination address %s", args[1])
		}

		reason, err := parseHex(args[2], 8)
		if err != nil {
			return nil, d.Errorf("bad disassociation reason %s", args[2])
		}

		return dispatch.RequestParams{Request: &mac.DisassociateRequest{
			Interface: args[0],
			Dest:      dest,
			Reason:    uint8(reason),
		}}, nil
	}

	d.Handle = func(x *dispatch.Exchange, h mac.Header, p mac.Payload) dispatch.Result {
		fmt.Fprintln(x.Out, "Done.")
		return dispatch.StopOK
	}

	return d
}
