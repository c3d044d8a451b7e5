// Package tracepkt decodes the RISC-V efficient trace packet stream into a
// sequence of typed Packet values.
package tracepkt

import "fmt"

// Kind identifies which of the six packet variants a Packet holds.
type Kind int

const (
	// KindSync is a synchronization packet (format 0b11, subformat 0):
	// carries a full address and resets the decoder's position.
	KindSync Kind = iota

	// KindException is a synchronization packet (format 0b11, subformat 1):
	// a Sync plus exception cause/interrupt/trap-value-or-epc fields.
	KindException

	// KindSupport is a synchronization packet (format 0b11, subformat 3):
	// trace-enable/qualification-status notification, no address.
	KindSupport

	// KindAddress is a plain address packet (format 0b10).
	KindAddress

	// KindAddressBranchMap is format 0b01 when branches != 0: an address
	// plus a queue of pending branch-taken bits.
	KindAddressBranchMap

	// KindNoAddressBranchMap is format 0b01 when branches == 0: only a
	// branch-map queue, no address.
	KindNoAddressBranchMap
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "Sync"
	case KindException:
		return "Exception"
	case KindSupport:
		return "Support"
	case KindAddress:
		return "Address"
	case KindAddressBranchMap:
		return "AddressBranchMap"
	case KindNoAddressBranchMap:
		return "NoAddressBranchMap"
	default:
		return "Invalid"
	}
}

// Packet is a decoded trace packet. Only the fields relevant to Kind are
// meaningful; the rest hold their zero value.
type Packet struct {
	Kind  Kind
	Index uint32 // 16-bit wire sequence index

	Address   uint32
	Branch    bool
	Privilege bool

	// Exception-only fields.
	ECause  uint8
	Interrupt bool
	TValEPC uint32

	// Address/AddressBranchMap-only fields.
	Notify   bool
	Updiscon bool

	// AddressBranchMap/NoAddressBranchMap-only fields.
	Branches  uint8
	BranchMap uint32

	// Support-only fields.
	Enable     bool
	QualStatus uint8
}

// String renders a Packet in a form useful for CLI output and test failure
// messages; it is not part of the decode path.
func (p Packet) String() string {
	switch p.Kind {
	case KindSync:
		return fmt.Sprintf("Sync(idx=%d addr=%#x branch=%t priv=%t)", p.Index, p.Address, p.Branch, p.Privilege)
	case KindException:
		return fmt.Sprintf("Exception(idx=%d addr=%#x ecause=%d interrupt=%t tval/epc=%#x)", p.Index, p.Address, p.ECause, p.Interrupt, p.TValEPC)
	case KindSupport:
		return fmt.Sprintf("Support(idx=%d enable=%t qual=%d)", p.Index, p.Enable, p.QualStatus)
	case KindAddress:
		return fmt.Sprintf("Address(idx=%d addr=%#x notify=%t updiscon=%t)", p.Index, p.Address, p.Notify, p.Updiscon)
	case KindAddressBranchMap:
		return fmt.Sprintf("AddressBranchMap(idx=%d addr=%#x branches=%d map=%#x)", p.Index, p.Address, p.Branches, p.BranchMap)
	case KindNoAddressBranchMap:
		return fmt.Sprintf("NoAddressBranchMap(idx=%d branches=%d map=%#x)", p.Index, p.Branches, p.BranchMap)
	default:
		return "Invalid"
	}
}

// DecodeStats reports how much of the input was consumed, for diagnostics.
type DecodeStats struct {
	PacketsDecoded int
	BytesConsumed  int
	BytesTotal     int
}
