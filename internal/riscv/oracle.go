// Package riscv is the instruction oracle: given a raw RV32IC opcode and
// the program counter it was fetched at, it predicts the successor
// address(es) without executing anything, and classifies the opcode as an
// inferable branch, an inferable jump, or an uninferable branch.
package riscv

import "encoding/binary"

// insnLen returns the instruction length in bytes: 4 for a standard RV32I
// instruction, 2 for a compressed (RVC) one. It only inspects the low two
// bits of the first byte, so a single byte is enough to call it safely.
func insnLen(insn []byte) int {
	if insn[0]&0b11 == 0b11 {
		return 4
	}
	return 2
}

// IsInferableBranch reports whether insn is a conditional branch whose
// target the oracle can compute (BEQ/BNE/BLT/BGE/BLTU/BGEU, or their
// compressed forms C.BEQZ/C.BNEZ).
func IsInferableBranch(insn []byte) bool {
	switch insnLen(insn) {
	case 4:
		inst := binary.LittleEndian.Uint32(insn[:4])
		return inst&0b1111111 == 0b1100011
	default:
		inst := binary.LittleEndian.Uint16(insn[:2])
		return inst&0b111_00000000000_11 == 0b110_00000000000_01 || // C.BEQZ
			inst&0b111_00000000000_11 == 0b111_00000000000_01 // C.BNEZ
	}
}

// IsInferableJump reports whether insn is an unconditional jump whose
// target the oracle can compute (JAL, or its compressed forms C.J/C.JAL).
func IsInferableJump(insn []byte) bool {
	switch insnLen(insn) {
	case 4:
		inst := binary.LittleEndian.Uint32(insn[:4])
		return inst&0b1111111 == 0b1101111
	default:
		inst := binary.LittleEndian.Uint16(insn[:2])
		return inst&0b111_00000000000_11 == 0b101_00000000000_01 || // C.J
			inst&0b111_00000000000_11 == 0b001_00000000000_01 // C.JAL
	}
}

// IsUninferableBranch reports whether insn is a control-flow instruction
// whose target cannot be computed from the opcode alone (JALR, MRET,
// ECALL, EBREAK, and the compressed forms C.JR/C.RET, C.JALR, C.EBREAK).
func IsUninferableBranch(insn []byte) bool {
	switch insnLen(insn) {
	case 4:
		inst := binary.LittleEndian.Uint32(insn[:4])
		switch {
		case inst&0b111_00000_11111_11 == 0b000_00000_11001_11: // JALR
			return true
		case inst == 0b00110000001000000000000001110011: // MRET
			return true
		case inst == 0b00000000000000000000000001110011: // ECALL
			return true
		case inst == 0b00000000000100000000000001110011: // EBREAK
			return true
		default:
			return false
		}
	default:
		inst := binary.LittleEndian.Uint16(insn[:2])
		switch {
		case inst&0b111_1_00000_11111_11 == 0b100_00000000000_10: // C.JR, C.RET
			return true
		case inst&0b1111_0000_0111_1111 == 0b1001_0000_0000_0010: // C.JALR
			return true
		case inst == 0b1001000000000010: // C.EBREAK
			return true
		default:
			return false
		}
	}
}
