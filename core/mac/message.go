package mac

import (
	"fmt"

	"github.com/mdlayher/netlink"
)

// Header carries the envelope of a message exchanged with the kernel
type Header struct {
	// Command is the generic netlink command
	Command Command

	// Version is the protocol version of the sender
	Version uint8

	// Sequence is the netlink sequence number
	Sequence uint32

	// Flags are the netlink header flags (Request, Dump, Multi, ...)
	Flags netlink.HeaderFlags

	// Multicast is set for messages delivered through a multicast group
	// rather than as a unicast reply
	Multicast bool

	// Done marks the end of a multi-part reply. Done messages carry
	// no command and no attributes
	Done bool
}

// Multipart reports whether the message is part of a multi-part (dump)
// reply that continues after it
func (h Header) Multipart() bool {
	return h.Flags&netlink.Multi != 0
}

func (h Header) String() string {
	if h.Done {
		return fmt.Sprintf("DONE seq=%d", h.Sequence)
	}

	kind := "unicast"
	if h.Multicast {
		kind = "multicast"
	}

	return fmt.Sprintf("%s seq=%d %s", h.Command, h.Sequence, kind)
}

// Message is a single message of the 802.15.4 MAC family. Attributes
// holds the netlink encoded attribute list
type Message struct {
	Header
	Attributes []byte
}

// DoneMessage returns the marker that terminates a multi-part reply
// with sequence number seq
func DoneMessage(seq uint32) Message {
	return Message{
		Header: Header{
			Sequence: seq,
			Done:     true,
		},
	}
}
