// Package follower reconstructs the executed PC sequence from a decoded
// trace packet stream and the binary image(s) it was captured against.
package follower

import (
	"rvtrace/common"
	"rvtrace/internal/image"
	"rvtrace/internal/riscv"
	"rvtrace/internal/tracepkt"
)

// branchCount returns how many branch-map bits a branch-map-bearing packet
// carries. Per OQ-2, branches == 0 means zero pending branches — not the
// reference decoder's 32, which the distilled spec calls out as a latent
// bug in the degenerate NoAddressBranchMap case.
func branchCount(branches uint8) int {
	return int(branches)
}

// Reconstruct walks packets, starting at the first Sync, draining branch
// queue bits at each inferable branch and consulting idx for straight-line
// code, until it reaches the address carried by the last packet before any
// trailing Support packet. It returns the accumulated PC sequence. It logs
// nothing; use ReconstructWithLogger to trace resynchronization events.
func Reconstruct(packets []tracepkt.Packet, idx *image.Index) ([]uint32, error) {
	return ReconstructWithLogger(packets, idx, common.NewNoOpLogger())
}

// ReconstructWithLogger is Reconstruct with a caller-supplied logger, in the
// teacher's NewDecoderWithLogger idiom: Debug-level lines for synchronization
// and resynchronization events (Sync/Address packets setting pc, uninferable
// branches suspending the inner loop).
func ReconstructWithLogger(packets []tracepkt.Packet, idx *image.Index, logger common.Logger) ([]uint32, error) {
	if len(packets) == 0 {
		return nil, common.NewCorrupted("no packets decoded")
	}

	firstSync := -1
	for i, p := range packets {
		if p.Kind == tracepkt.KindSync {
			firstSync = i
			break
		}
	}
	if firstSync == -1 {
		return nil, common.NewCorrupted("no sync packet found")
	}

	lastPacket := len(packets) - 1
	if packets[lastPacket].Kind == tracepkt.KindSupport {
		lastPacket--
	}
	if lastPacket < 0 || packets[lastPacket].Kind != tracepkt.KindAddress {
		return nil, common.NewCorrupted("last packet before any trailing support packet is not address-bearing")
	}
	endPC := packets[lastPacket].Address

	var branchQueue []bool
	var executionPath []uint32

	current := firstSync
	var pc uint32
	uninferable := false
	lastTakenBranchMap := -1

outer:
	for {
		if current >= len(packets) {
			// The stream ran out before end_pc was reached: hand back
			// whatever was accumulated so far and let the caller detect
			// truncation rather than reporting it as corruption.
			return executionPath, nil
		}

		pkt := packets[current]
		switch pkt.Kind {
		case tracepkt.KindSync:
			pc = pkt.Address
			logger.Logf(common.SeverityDebug, "sync at packet %d: pc=%#x", current, pc)
			// A Sync's branch bit records whether the branch at this
			// address was NOT taken; if the instruction there is an
			// inferable branch, invert it onto the front of the queue so
			// the inner loop drains it first, ahead of anything a later
			// branch-map packet enqueues.
			if insn, ok := idx.InstructionAt(pc); ok && riscv.IsInferableBranch(insn) {
				branchQueue = append([]bool{!pkt.Branch}, branchQueue...)
			}
			current++

		case tracepkt.KindAddress:
			pc = pkt.Address
			logger.Logf(common.SeverityDebug, "address at packet %d: pc=%#x", current, pc)
			current++

		case tracepkt.KindAddressBranchMap:
			if uninferable {
				pc = pkt.Address
				logger.Logf(common.SeverityDebug, "resync at packet %d: pc=%#x", current, pc)
				current++
			} else {
				// Re-entrant cursor quirk (OQ-1): kept bit-for-bit as the
				// reference decoder behaves. The first pass through this
				// packet queues its branch-map bits without advancing the
				// cursor; only once the inner loop returns here with the
				// queue drained — recognized by lastTakenBranchMap already
				// pointing at this index — does the cursor advance, and
				// even then this packet's branch-map bits are enqueued a
				// second time. Its address field never sets pc here.
				if lastTakenBranchMap == current {
					current++
				}
				lastTakenBranchMap = current
				count := branchCount(pkt.Branches)
				for i := 0; i < count; i++ {
					branchQueue = append(branchQueue, (pkt.BranchMap>>uint(i))&1 == 0)
				}
			}

		case tracepkt.KindNoAddressBranchMap:
			count := branchCount(pkt.Branches)
			for i := 0; i < count; i++ {
				branchQueue = append(branchQueue, (pkt.BranchMap>>uint(i))&1 == 0)
			}
			current++

		default:
			// Exception and Support packets are skipped outright: neither
			// updates pc nor feeds the branch queue.
			current++
			continue outer
		}
		uninferable = false

		for {
			if len(executionPath) == 0 || executionPath[len(executionPath)-1] != pc {
				executionPath = append(executionPath, pc)
			}
			if pc == endPC {
				break outer
			}

			insn, ok := idx.InstructionAt(pc)
			if !ok {
				return nil, common.NewCorruptedAt(current, "no instruction available at reconstructed pc")
			}

			switch {
			case riscv.IsInferableBranch(insn):
				if len(branchQueue) == 0 {
					continue outer
				}
				taken := branchQueue[0]
				branchQueue = branchQueue[1:]
				na, err := riscv.Next(insn, pc)
				if err != nil {
					return nil, err
				}
				if taken {
					pc = na.Branched
				} else {
					pc = na.NextInstruction
				}

			case riscv.IsInferableJump(insn):
				na, err := riscv.Next(insn, pc)
				if err != nil {
					return nil, err
				}
				pc = na.NextInstruction

			case riscv.IsUninferableBranch(insn):
				logger.Logf(common.SeverityDebug, "uninferable branch at pc=%#x, waiting for resync", pc)
				uninferable = true
				continue outer

			default:
				na, err := riscv.Next(insn, pc)
				if err != nil {
					return nil, err
				}
				pc = na.NextInstruction
			}
		}
	}

	return executionPath, nil
}
