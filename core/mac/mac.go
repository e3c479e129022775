// Package mac describes the IEEE 802.15.4 MAC generic netlink family used
// to talk to the kernel: command and attribute identifiers, address types
// and typed message payloads.
package mac

import "fmt"

const (
	// FamilyName is the name of the generic netlink family
	FamilyName = "802.15.4 MAC"

	// CoordinatorGroup is the multicast group that carries indications
	CoordinatorGroup = "coordinator"

	// Version is the protocol version sent in each generic netlink header
	Version = 1
)

// Command identifies a message of the 802.15.4 MAC family
type Command uint8

// Known commands
const (
	CmdUnspec Command = iota
	CmdAssociateReq
	CmdAssociateConf
	CmdDisassociateReq
	CmdDisassociateConf
	CmdGetReq
	CmdGetConf
	CmdResetReq
	CmdResetConf
	CmdScanReq
	CmdScanConf
	CmdSetReq
	CmdSetConf
	CmdStartReq
	CmdStartConf
	CmdSyncReq
	CmdPollReq
	CmdPollConf
	CmdAssociateIndic
	CmdAssociateResp
	CmdDisassociateIndic
	CmdBeaconNotifyIndic
	CmdOrphanIndic
	CmdOrphanResp
	CmdCommStatusIndic
	CmdSyncLossIndic
	CmdGTSReq
	CmdGTSIndic
	CmdGTSConf
	CmdRxEnableReq
	CmdRxEnableConf
	CmdListIface
)

var commandNames = map[Command]string{
	CmdUnspec:            "UNSPEC",
	CmdAssociateReq:      "ASSOCIATE_REQ",
	CmdAssociateConf:     "ASSOCIATE_CONF",
	CmdDisassociateReq:   "DISASSOCIATE_REQ",
	CmdDisassociateConf:  "DISASSOCIATE_CONF",
	CmdGetReq:            "GET_REQ",
	CmdGetConf:           "GET_CONF",
	CmdResetReq:          "RESET_REQ",
	CmdResetConf:         "RESET_CONF",
	CmdScanReq:           "SCAN_REQ",
	CmdScanConf:          "SCAN_CONF",
	CmdSetReq:            "SET_REQ",
	CmdSetConf:           "SET_CONF",
	CmdStartReq:          "START_REQ",
	CmdStartConf:         "START_CONF",
	CmdSyncReq:           "SYNC_REQ",
	CmdPollReq:           "POLL_REQ",
	CmdPollConf:          "POLL_CONF",
	CmdAssociateIndic:    "ASSOCIATE_INDIC",
	CmdAssociateResp:     "ASSOCIATE_RESP",
	CmdDisassociateIndic: "DISASSOCIATE_INDIC",
	CmdBeaconNotifyIndic: "BEACON_NOTIFY_INDIC",
	CmdOrphanIndic:       "ORPHAN_INDIC",
	CmdOrphanResp:        "ORPHAN_RESP",
	CmdCommStatusIndic:   "COMM_STATUS_INDIC",
	CmdSyncLossIndic:     "SYNC_LOSS_INDIC",
	CmdGTSReq:            "GTS_REQ",
	CmdGTSIndic:          "GTS_INDIC",
	CmdGTSConf:           "GTS_CONF",
	CmdRxEnableReq:       "RX_ENABLE_REQ",
	CmdRxEnableConf:      "RX_ENABLE_CONF",
	CmdListIface:         "LIST_IFACE",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}

	return fmt.Sprintf("UNKNOWN(%d)", uint8(c))
}

// Attribute identifies a netlink attribute of the 802.15.4 MAC family
type Attribute uint16

// Known attributes
const (
	AttrUnspec Attribute = iota
	AttrDevName
	AttrDevIndex
	AttrStatus
	AttrShortAddr
	AttrHwAddr
	AttrPANID
	AttrChannel
	AttrCoordShortAddr
	AttrCoordHwAddr
	AttrCoordPANID
	AttrSrcShortAddr
	AttrSrcHwAddr
	AttrSrcPANID
	AttrDestShortAddr
	AttrDestHwAddr
	AttrDestPANID
	AttrCapability
	AttrReason
	AttrScanType
	AttrChannels
	AttrDuration
	AttrEDList
)

var attributeNames = map[Attribute]string{
	AttrDevName:        "DEV_NAME",
	AttrDevIndex:       "DEV_INDEX",
	AttrStatus:         "STATUS",
	AttrShortAddr:      "SHORT_ADDR",
	AttrHwAddr:         "HW_ADDR",
	AttrPANID:          "PAN_ID",
	AttrChannel:        "CHANNEL",
	AttrCoordShortAddr: "COORD_SHORT_ADDR",
	AttrCoordHwAddr:    "COORD_HW_ADDR",
	AttrCoordPANID:     "COORD_PAN_ID",
	AttrSrcShortAddr:   "SRC_SHORT_ADDR",
	AttrSrcHwAddr:      "SRC_HW_ADDR",
	AttrSrcPANID:       "SRC_PAN_ID",
	AttrDestShortAddr:  "DEST_SHORT_ADDR",
	AttrDestHwAddr:     "DEST_HW_ADDR",
	AttrDestPANID:      "DEST_PAN_ID",
	AttrCapability:     "CAPABILITY",
	AttrReason:         "REASON",
	AttrScanType:       "SCAN_TYPE",
	AttrChannels:       "CHANNELS",
	AttrDuration:       "DURATION",
	AttrEDList:         "ED_LIST",
}

func (a Attribute) String() string {
	if name, ok := attributeNames[a]; ok {
		return name
	}

	return fmt.Sprintf("ATTR(%d)", uint16(a))
}

// EDListLen is the number of energy-detect results carried in ED_LIST,
// one per channel of page 0
const EDListLen = 27

// Capability holds the capability information field a device sends
// with an association request
type Capability uint8

// Capability bits
const (
	CapAltPANCoord  Capability = 1 << 0
	CapFFD          Capability = 1 << 1
	CapMainsPowered Capability = 1 << 2
	CapRxOnWhenIdle Capability = 1 << 3
	CapSecurity     Capability = 1 << 6
	CapAllocShort   Capability = 1 << 7
)

// WantsShort reports whether the device asks the coordinator to allocate
// a short address
func (c Capability) WantsShort() bool {
	return c&CapAllocShort != 0
}

func (c Capability) String() string {
	return fmt.Sprintf("0x%02x", uint8(c))
}

// Status is a MAC status code as carried in the STATUS attribute
type Status uint8

// Association status codes
const (
	StatusSuccess       Status = 0x00
	StatusPANAtCapacity Status = 0x01
	StatusAccessDenied  Status = 0x02
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPANAtCapacity:
		return "pan-at-capacity"
	case StatusAccessDenied:
		return "access-denied"
	}

	return fmt.Sprintf("status(0x%02x)", uint8(s))
}

// ScanType selects the kind of channel scan
type ScanType uint8

// Scan types
const (
	ScanED ScanType = iota
	ScanActive
	ScanPassive
	ScanOrphan
)

var scanTypeNames = []string{"ed", "active", "passive", "orphan"}

func (t ScanType) String() string {
	if int(t) < len(scanTypeNames) {
		return scanTypeNames[t]
	}

	return fmt.Sprintf("scan(%d)", uint8(t))
}

// ParseScanType parses the name of a scan type
func ParseScanType(s string) (ScanType, error) {
	for i, name := range scanTypeNames {
		if name == s {
			return ScanType(i), nil
		}
	}

	return 0, fmt.Errorf("unknown scan type %q", s)
}
