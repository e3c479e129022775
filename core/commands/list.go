package commands

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
)

func listCommand() *dispatch.Descriptor {
	d := &dispatch.Descriptor{
		Name:     "list",
		Usage:    "[iface]",
		Doc:      "List interface(s).",
		Request:  mac.CmdListIface,
		Response: mac.CmdListIface,
	}

	d.Parse = func(args []string) (dispatch.Params, error) {
		if len(args) > 1 {
			return nil, d.Errorf("incorrect number of arguments")
		}

		req := &mac.ListRequest{}
		if len(args) == 1 {
			req.Interface = args[0]
		}

		return dispatch.RequestParams{Request: req}, nil
	}

	d.Handle = func(x *dispatch.Exchange, h mac.Header, p mac.Payload) dispatch.Result {
		info := p.(*mac.InterfaceInfo)

		fmt.Fprintf(x.Out, "%s\n", info.Interface)
		fmt.Fprintf(x.Out, "    link: IEEE 802.15.4 MAC interface\n")
		fmt.Fprintf(x.Out, "    hw %s pan 0x%04x short 0x%04x\n", info.HwAddr, info.PANID, uint16(info.Short))

		if h.Multipart() {
			return dispatch.Continue
		}
		return dispatch.StopOK
	}

	d.Finish = func(*dispatch.Exchange) dispatch.Result {
		return dispatch.StopOK
	}

	return d
}
