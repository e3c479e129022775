package commands

import (
	"fmt"

	"github.com/nextdhcp/nextpan/core/dispatch"
	"github.com/nextdhcp/nextpan/core/mac"
)

// eventCommand prints every message of the multicast group. Confirms that
// answer another command are also rendered by that command's handler,
// found through byResponse
func eventCommand(byResponse func(mac.Command) (*dispatch.Descriptor, bool)) *dispatch.Descriptor {
	d := &dispatch.Descriptor{
		Name:     "event",
		Usage:    "",
		Doc:      "Monitor events from the kernel (^C to stop).",
		Listener: true,
	}

	d.Parse = func(args []string) (dispatch.Params, error) {
		if len(args) != 0 {
			return nil, d.Errorf("incorrect number of arguments")
		}
		return nil, nil
	}

	d.Handle = func(x *dispatch.Exchange, h mac.Header, p mac.Payload) dispatch.Result {
		if iface := mac.InterfaceName(p); iface != "" {
			fmt.Fprintf(x.Out, "%s (%d) %s\n", h.Command, uint8(h.Command), iface)
		} else {
			fmt.Fprintf(x.Out, "%s (%d)\n", h.Command, uint8(h.Command))
		}

		if owner, ok := byResponse(h.Command); ok {
			// the owner's verdict only applies to its own exchange
			owner.Handle(x, h, p)
		}

		return dispatch.Continue
	}

	return d
}
