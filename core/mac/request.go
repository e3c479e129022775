package mac

import "github.com/mdlayher/netlink"

type (
	// Request is a message that we send to the kernel
	Request interface {
		Payload

		// Encode serializes the request into a Message
		Encode() (Message, error)
	}

	// AssociateRequest asks the interface to associate with a coordinator
	AssociateRequest struct {
		Interface  string
		PANID      uint16
		Coord      Address
		Channel    uint8
		Capability Capability
	}

	// DisassociateRequest asks the interface to disassociate a device
	DisassociateRequest struct {
		Interface string
		Dest      Address
		Reason    uint8
	}

	// ScanRequest starts a channel scan
	ScanRequest struct {
		Interface string
		Type      ScanType
		Channels  uint32
		Duration  uint8
	}

	// ListRequest lists one interface or, if Interface is empty, dumps
	// all of them
	ListRequest struct {
		Interface string
	}
)

// Command implements Payload
func (*AssociateRequest) Command() Command { return CmdAssociateReq }

// Command implements Payload
func (*DisassociateRequest) Command() Command { return CmdDisassociateReq }

// Command implements Payload
func (*ScanRequest) Command() Command { return CmdScanReq }

// Command implements Payload
func (*ListRequest) Command() Command { return CmdListIface }

// Encode implements Request
func (r *AssociateRequest) Encode() (Message, error) {
	return encode(r.Command(), 0, func(ae *netlink.AttributeEncoder) {
		ae.String(uint16(AttrDevName), r.Interface)
		ae.Uint16(uint16(AttrCoordPANID), r.PANID)
		putAddress(ae, AttrCoordHwAddr, AttrCoordShortAddr, r.Coord)
		ae.Uint8(uint16(AttrChannel), r.Channel)
		ae.Uint8(uint16(AttrCapability), uint8(r.Capability))
	})
}

// Encode implements Request
func (r *DisassociateRequest) Encode() (Message, error) {
	return encode(r.Command(), 0, func(ae *netlink.AttributeEncoder) {
		ae.String(uint16(AttrDevName), r.Interface)
		putAddress(ae, AttrDestHwAddr, AttrDestShortAddr, r.Dest)
		ae.Uint8(uint16(AttrReason), r.Reason)
	})
}

// Encode implements Request
func (r *ScanRequest) Encode() (Message, error) {
	return encode(r.Command(), 0, func(ae *netlink.AttributeEncoder) {
		ae.String(uint16(AttrDevName), r.Interface)
		ae.Uint8(uint16(AttrScanType), uint8(r.Type))
		ae.Uint32(uint16(AttrChannels), r.Channels)
		ae.Uint8(uint16(AttrDuration), r.Duration)
	})
}

// Encode implements Request
func (r *ListRequest) Encode() (Message, error) {
	if r.Interface == "" {
		return encode(r.Command(), netlink.Dump, func(*netlink.AttributeEncoder) {})
	}

	return encode(r.Command(), 0, func(ae *netlink.AttributeEncoder) {
		ae.String(uint16(AttrDevName), r.Interface)
	})
}

// Encode implements Request
func (r *AssociateResponse) Encode() (Message, error) {
	return encode(r.Command(), 0, func(ae *netlink.AttributeEncoder) {
		if r.Interface != "" {
			ae.String(uint16(AttrDevName), r.Interface)
		}
		ae.Uint32(uint16(AttrDevIndex), r.DevIndex)
		ae.Uint8(uint16(AttrStatus), uint8(r.Status))
		ae.Bytes(uint16(AttrDestHwAddr), r.Dest[:])
		ae.Uint16(uint16(AttrDestShortAddr), uint16(r.Short))
	})
}

// EncodeIndication serializes a kernel originated message. It is used by
// tools and tests that play the kernel's part
func EncodeIndication(p Payload) (Message, error) {
	m, err := encodeIndication(p)
	m.Flags = 0

	return m, err
}

func encodeIndication(p Payload) (Message, error) {
	switch ind := p.(type) {
	case *AssociateIndication:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			ae.String(uint16(AttrDevName), ind.Interface)
			ae.Uint32(uint16(AttrDevIndex), ind.DevIndex)
			ae.Bytes(uint16(AttrSrcHwAddr), ind.Source[:])
			ae.Uint8(uint16(AttrCapability), uint8(ind.Capability))
		})

	case *DisassociateIndication:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			ae.String(uint16(AttrDevName), ind.Interface)
			ae.Uint32(uint16(AttrDevIndex), ind.DevIndex)
			putAddress(ae, AttrSrcHwAddr, AttrSrcShortAddr, ind.Source)
			ae.Uint8(uint16(AttrReason), ind.Reason)
		})

	case *AssociateConfirm:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			if ind.Interface != "" {
				ae.String(uint16(AttrDevName), ind.Interface)
			}
			ae.Uint16(uint16(AttrShortAddr), uint16(ind.Short))
			ae.Uint8(uint16(AttrStatus), uint8(ind.Status))
		})

	case *DisassociateConfirm:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			if ind.Interface != "" {
				ae.String(uint16(AttrDevName), ind.Interface)
			}
			ae.Uint8(uint16(AttrStatus), uint8(ind.Status))
		})

	case *ScanConfirm:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			if ind.Interface != "" {
				ae.String(uint16(AttrDevName), ind.Interface)
			}
			ae.Uint32(uint16(AttrDevIndex), ind.DevIndex)
			ae.Uint8(uint16(AttrStatus), uint8(ind.Status))
			ae.Uint8(uint16(AttrScanType), uint8(ind.Type))
			ae.Uint32(uint16(AttrChannels), ind.Channels)
			if ind.EDList != nil {
				ae.Bytes(uint16(AttrEDList), ind.EDList)
			}
		})

	case *InterfaceInfo:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			ae.String(uint16(AttrDevName), ind.Interface)
			ae.Uint32(uint16(AttrDevIndex), ind.DevIndex)
			ae.Bytes(uint16(AttrHwAddr), ind.HwAddr[:])
			ae.Uint16(uint16(AttrShortAddr), uint16(ind.Short))
			ae.Uint16(uint16(AttrPANID), ind.PANID)
		})

	case *Event:
		return encode(ind.Command(), 0, func(ae *netlink.AttributeEncoder) {
			if ind.Interface != "" {
				ae.String(uint16(AttrDevName), ind.Interface)
			}
		})
	}

	return Message{}, &ProtocolError{Command: p.Command(), Reason: "no encoding for payload"}
}

func putAddress(ae *netlink.AttributeEncoder, long, short Attribute, addr Address) {
	switch addr.Mode {
	case AddrLong:
		ae.Bytes(uint16(long), addr.Hardware[:])
	case AddrShort:
		ae.Uint16(uint16(short), uint16(addr.Short))
	}
}

func encode(cmd Command, flags netlink.HeaderFlags, fn func(ae *netlink.AttributeEncoder)) (Message, error) {
	ae := netlink.NewAttributeEncoder()
	fn(ae)

	b, err := ae.Encode()
	if err != nil {
		return Message{}, err
	}

	return Message{
		Header: Header{
			Command: cmd,
			Version: Version,
			Flags:   netlink.Request | flags,
		},
		Attributes: b,
	}, nil
}
