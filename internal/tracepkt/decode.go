package tracepkt

import (
	"fmt"

	"rvtrace/common"
	"rvtrace/internal/bitstream"
)

// branchMapBits returns the branch-map width of an address-bearing
// format-0b01 packet for a given branches count. A result of 0 (branches
// == 0) selects NoAddressBranchMap per OQ-2 instead; the decoder then reads
// a full 31-bit map and no address.
func branchMapBits(branches uint32) int {
	switch {
	case branches == 0:
		return 0
	case branches == 1:
		return 1
	case branches >= 2 && branches <= 3:
		return 3
	case branches >= 4 && branches <= 7:
		return 7
	case branches >= 8 && branches <= 15:
		return 15
	default: // 16..=31 (the field is 5 bits, so 32 is unreachable)
		return 31
	}
}

// addressSignExtendBits returns how many sign-extend bits follow the
// address field of an AddressBranchMap packet, keyed by the same branches
// count used for branchMapBits.
func addressSignExtendBits(branches uint32) int {
	switch {
	case branches == 1:
		return 7
	case branches >= 2 && branches <= 3:
		return 5
	case branches >= 4 && branches <= 15:
		return 1
	default: // 16..=31
		return 0
	}
}

// Decode parses a byte slice of framed trace packets. It stops, without
// error, at the first malformed or truncated frame it finds, returning
// everything successfully decoded up to that point along with stats on how
// much of the input was consumed. It logs nothing; use DecodeWithLogger to
// trace packet dispatch and termination decisions.
func Decode(data []byte) ([]Packet, DecodeStats) {
	return DecodeWithLogger(data, common.NewNoOpLogger())
}

// DecodeWithLogger is Decode with a caller-supplied logger: Debug-level
// lines for each dispatched packet and for why decoding stopped early.
func DecodeWithLogger(data []byte, logger common.Logger) ([]Packet, DecodeStats) {
	var packets []Packet
	r := bitstream.NewReader(data)

	var previousIndex uint32
	havePrevious := false

	for r.HasData(8) {
		startBitCount := r.BitPos()

		length := r.GetBits(5)
		until := startBitCount + 8*int(length)

		if r.TotalBits() <= until {
			logger.Debug("decode stopped: advertised length runs past end of stream")
			break
		}

		r.GetBits(3) // reserved

		if length == 0 {
			continue
		}

		if !r.HasData(int(length)*8 - 8) {
			logger.Debug("decode stopped: truncated frame body")
			break
		}

		index := r.GetBits(16)
		if havePrevious {
			// Matches the Rust original's index.wrapping_sub(1) on the
			// full 32-bit value (not masked to 16 bits): when index == 0
			// this never equals previousIndex, so the sequence check
			// always breaks the loop on a wrapped-to-zero index.
			if previousIndex != index-1 {
				logger.Logf(common.SeverityDebug, "decode stopped: sequence gap, previous=%d index=%d", previousIndex, index)
				break
			}
		}
		previousIndex = index
		havePrevious = true

		format := r.GetBits(2)
		beforeCount := len(packets)

		switch format {
		case 0b01:
			branches := r.GetBits(5)
			bits := branchMapBits(branches)

			var branchMap uint32
			if bits != 0 {
				branchMap = r.GetBits(bits)
			} else {
				branchMap = r.GetBits(31)
			}

			if bits != 0 {
				address := r.GetBits(31)
				signBits := addressSignExtendBits(branches)
				notify := r.GetBits(1)
				updiscon := r.GetBits(1)
				r.GetBits(signBits)

				packets = append(packets, Packet{
					Kind:      KindAddressBranchMap,
					Index:     index,
					Address:   address << 1,
					Branches:  uint8(branches),
					BranchMap: branchMap,
					Notify:    notify != 0,
					Updiscon:  updiscon != 0,
				})
			} else {
				r.GetBits(2) // sign extend
				packets = append(packets, Packet{
					Kind:      KindNoAddressBranchMap,
					Index:     index,
					Branches:  uint8(branches),
					BranchMap: branchMap,
				})
			}

		case 0b10:
			address := r.GetBits(31)
			notify := r.GetBits(1)
			updiscon := r.GetBits(1)
			r.GetBits(5) // sign extend

			packets = append(packets, Packet{
				Kind:     KindAddress,
				Index:    index,
				Address:  address << 1,
				Notify:   notify != 0,
				Updiscon: updiscon != 0,
			})

		case 0b11:
			subformat := r.GetBits(2)

			switch subformat {
			case 0:
				branch := r.GetBits(1)
				privilege := r.GetBits(1)
				address := r.GetBits(31)
				r.GetBits(3) // sign extend

				packets = append(packets, Packet{
					Kind:      KindSync,
					Index:     index,
					Address:   address << 1,
					Branch:    branch != 0,
					Privilege: privilege != 0,
				})

			case 1:
				branch := r.GetBits(1)
				privilege := r.GetBits(1)
				ecause := r.GetBits(5)
				interrupt := r.GetBits(1)
				address := r.GetBits(31)
				tvalepc := r.GetBits(32)
				r.GetBits(6) // sign extend

				packets = append(packets, Packet{
					Kind:      KindException,
					Index:     index,
					Address:   address << 1,
					Branch:    branch != 0,
					Privilege: privilege != 0,
					ECause:    uint8(ecause),
					Interrupt: interrupt != 0,
					TValEPC:   tvalepc,
				})

			case 2:
				// Context: intentionally dropped, per OQ-3. The frame's
				// length field already accounts for its bits; SkipUntil
				// below discards them.

			case 3:
				enable := r.GetBits(1)
				qualStatus := r.GetBits(2)
				r.GetBits(1) // sign extend

				packets = append(packets, Packet{
					Kind:       KindSupport,
					Index:      index,
					Enable:     enable != 0,
					QualStatus: uint8(qualStatus),
				})
			}
		}

		if len(packets) > beforeCount {
			logger.Debug(fmt.Sprintf("decoded %s", packets[len(packets)-1]))
		}

		r.SkipUntil(until)
	}

	stats := DecodeStats{
		PacketsDecoded: len(packets),
		BytesConsumed:  r.BitPos() / 8,
		BytesTotal:     len(data),
	}
	return packets, stats
}
