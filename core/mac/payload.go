package mac

import (
	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
)

type (
	// Payload is the decoded, validated content of a Message. Each
	// command has its own payload type
	Payload interface {
		Command() Command
	}

	// AssociateIndication is sent by the kernel when a device asks to
	// join the PAN
	AssociateIndication struct {
		Interface  string
		DevIndex   uint32
		Source     HardwareAddr
		Capability Capability
	}

	// DisassociateIndication is sent by the kernel when a device left
	// the PAN. Source is either a short or a hardware address
	DisassociateIndication struct {
		Interface string
		DevIndex  uint32
		Reason    uint8
		Source    Address
	}

	// AssociateResponse is the coordinator's answer to an
	// AssociateIndication
	AssociateResponse struct {
		Interface string
		DevIndex  uint32
		Status    Status
		Dest      HardwareAddr
		Short     ShortAddr
	}

	// AssociateConfirm reports the outcome of an association request
	AssociateConfirm struct {
		Interface string
		Short     ShortAddr
		Status    Status
	}

	// DisassociateConfirm reports the outcome of a disassociation request
	DisassociateConfirm struct {
		Interface string
		Status    Status
	}

	// ScanConfirm reports the result of a channel scan. EDList is only
	// set for energy detect scans
	ScanConfirm struct {
		Interface string
		DevIndex  uint32
		Status    Status
		Type      ScanType
		Channels  uint32
		EDList    []byte
	}

	// InterfaceInfo describes one 802.15.4 interface as returned by
	// LIST_IFACE
	InterfaceInfo struct {
		Interface string
		DevIndex  uint32
		HwAddr    HardwareAddr
		Short     ShortAddr
		PANID     uint16
	}

	// Event is any other message. Interface is empty if the message did
	// not carry a device name
	Event struct {
		Cmd       Command
		Interface string
	}
)

// Command implements Payload
func (*AssociateIndication) Command() Command { return CmdAssociateIndic }

// Command implements Payload
func (*DisassociateIndication) Command() Command { return CmdDisassociateIndic }

// Command implements Payload
func (*AssociateResponse) Command() Command { return CmdAssociateResp }

// Command implements Payload
func (*AssociateConfirm) Command() Command { return CmdAssociateConf }

// Command implements Payload
func (*DisassociateConfirm) Command() Command { return CmdDisassociateConf }

// Command implements Payload
func (*ScanConfirm) Command() Command { return CmdScanConf }

// Command implements Payload
func (*InterfaceInfo) Command() Command { return CmdListIface }

// Command implements Payload
func (e *Event) Command() Command { return e.Cmd }

// InterfaceName returns the device name carried by p, if any
func InterfaceName(p Payload) string {
	switch v := p.(type) {
	case *AssociateIndication:
		return v.Interface
	case *DisassociateIndication:
		return v.Interface
	case *AssociateResponse:
		return v.Interface
	case *AssociateConfirm:
		return v.Interface
	case *DisassociateConfirm:
		return v.Interface
	case *ScanConfirm:
		return v.Interface
	case *InterfaceInfo:
		return v.Interface
	case *Event:
		return v.Interface
	}

	return ""
}

// Decode validates the attributes of m and returns the typed payload for
// its command. A missing or malformed mandatory attribute results in a
// *ProtocolError
func Decode(m Message) (Payload, error) {
	if m.Done {
		return nil, &ProtocolError{Reason: "cannot decode end-of-dump marker"}
	}

	r, err := newReader(m.Command, m.Attributes)
	if err != nil {
		return nil, err
	}

	var p Payload

	switch m.Command {
	case CmdAssociateIndic:
		p = &AssociateIndication{
			Interface:  r.str(AttrDevName),
			DevIndex:   r.u32(AttrDevIndex),
			Source:     r.hw(AttrSrcHwAddr),
			Capability: Capability(r.u8(AttrCapability)),
		}

	case CmdDisassociateIndic:
		ind := &DisassociateIndication{
			Interface: r.str(AttrDevName),
			DevIndex:  r.u32(AttrDevIndex),
			Reason:    r.u8(AttrReason),
		}
		switch {
		case r.has(AttrSrcHwAddr):
			ind.Source = LongAddress(r.hw(AttrSrcHwAddr))
		case r.has(AttrSrcShortAddr):
			ind.Source = ShortAddress(ShortAddr(r.u16(AttrSrcShortAddr)))
		default:
			r.fail(missing(m.Command, AttrSrcHwAddr))
		}
		p = ind

	case CmdAssociateResp:
		p = &AssociateResponse{
			Interface: r.optStr(AttrDevName),
			DevIndex:  r.u32(AttrDevIndex),
			Status:    Status(r.u8(AttrStatus)),
			Dest:      r.hw(AttrDestHwAddr),
			Short:     ShortAddr(r.u16(AttrDestShortAddr)),
		}

	case CmdAssociateConf:
		p = &AssociateConfirm{
			Interface: r.optStr(AttrDevName),
			Short:     ShortAddr(r.u16(AttrShortAddr)),
			Status:    Status(r.u8(AttrStatus)),
		}

	case CmdDisassociateConf:
		conf := &DisassociateConfirm{Interface: r.optStr(AttrDevName)}
		if r.has(AttrStatus) {
			conf.Status = Status(r.u8(AttrStatus))
		}
		p = conf

	case CmdScanConf:
		conf := &ScanConfirm{
			Interface: r.optStr(AttrDevName),
			Status:    Status(r.u8(AttrStatus)),
			Type:      ScanType(r.u8(AttrScanType)),
		}
		if r.has(AttrDevIndex) {
			conf.DevIndex = r.u32(AttrDevIndex)
		}
		if r.has(AttrChannels) {
			conf.Channels = r.u32(AttrChannels)
		}
		if r.has(AttrEDList) {
			conf.EDList = r.bytes(AttrEDList, EDListLen)
		}
		p = conf

	case CmdListIface:
		info := &InterfaceInfo{
			Interface: r.str(AttrDevName),
			DevIndex:  r.u32(AttrDevIndex),
			HwAddr:    r.hw(AttrHwAddr),
			Short:     ShortBroadcast,
			PANID:     0xffff,
		}
		if r.has(AttrShortAddr) {
			info.Short = ShortAddr(r.u16(AttrShortAddr))
		}
		if r.has(AttrPANID) {
			info.PANID = r.u16(AttrPANID)
		}
		p = info

	default:
		p = &Event{
			Cmd:       m.Command,
			Interface: r.optStr(AttrDevName),
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	return p, nil
}

// reader gives typed access to an attribute set and records the first
// validation error
type reader struct {
	cmd   Command
	attrs map[Attribute][]byte
	err   error
}

func newReader(cmd Command, b []byte) (*reader, error) {
	r := &reader{
		cmd:   cmd,
		attrs: make(map[Attribute][]byte),
	}

	if len(b) == 0 {
		return r, nil
	}

	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return nil, &ProtocolError{Command: cmd, Reason: err.Error()}
	}

	for ad.Next() {
		r.attrs[Attribute(ad.Type())] = ad.Bytes()
	}

	if err := ad.Err(); err != nil {
		return nil, &ProtocolError{Command: cmd, Reason: err.Error()}
	}

	return r, nil
}

func (r *reader) fail(err *ProtocolError) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) has(a Attribute) bool {
	_, ok := r.attrs[a]
	return ok
}

// bytes returns the value of a mandatory attribute of exactly size bytes.
// A size of -1 accepts any length
func (r *reader) bytes(a Attribute, size int) []byte {
	b, ok := r.attrs[a]
	if !ok {
		r.fail(missing(r.cmd, a))
		return nil
	}

	if size >= 0 && len(b) != size {
		r.fail(malformed(r.cmd, a, len(b), size))
		return nil
	}

	return b
}

func (r *reader) u8(a Attribute) uint8 {
	if b := r.bytes(a, 1); b != nil {
		return b[0]
	}

	return 0
}

func (r *reader) u16(a Attribute) uint16 {
	if b := r.bytes(a, 2); b != nil {
		return nlenc.Uint16(b)
	}

	return 0
}

func (r *reader) u32(a Attribute) uint32 {
	if b := r.bytes(a, 4); b != nil {
		return nlenc.Uint32(b)
	}

	return 0
}

func (r *reader) hw(a Attribute) HardwareAddr {
	var hw HardwareAddr
	if b := r.bytes(a, len(hw)); b != nil {
		copy(hw[:], b)
	}

	return hw
}

func (r *reader) str(a Attribute) string {
	if b := r.bytes(a, -1); b != nil {
		return nlenc.String(b)
	}

	return ""
}

func (r *reader) optStr(a Attribute) string {
	if !r.has(a) {
		return ""
	}

	return r.str(a)
}
