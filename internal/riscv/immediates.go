package riscv

import (
	"encoding/binary"
	"fmt"
)

// NextAddress holds the address(es) the oracle infers follow insn at pc.
// NextInstruction is the straight-line successor (fallthrough for a
// non-branching instruction, or the sole target for an unconditional
// inferable jump). Branched is only set for a conditional inferable
// branch, and holds the taken-branch target.
type NextAddress struct {
	NextInstruction uint32
	HasBranched     bool
	Branched        uint32
}

// Next returns the address(es) the oracle can compute for insn fetched at
// pc without executing it: the straight-line successor always, plus (for a
// conditional inferable branch) the taken-branch target. insn must hold at
// least 2 bytes, and at least 4 if its low two bits mark it as a standard
// (non-compressed) instruction.
func Next(insn []byte, pc uint32) (NextAddress, error) {
	candidates, err := estimateNextInferablePC(insn, pc)
	if err != nil {
		return NextAddress{}, err
	}

	na := NextAddress{NextInstruction: candidates[0]}
	if len(candidates) > 1 {
		na.HasBranched = true
		na.Branched = candidates[1]
	}
	return na, nil
}

func estimateNextInferablePC(insn []byte, pc uint32) ([]uint32, error) {
	if len(insn) < 2 {
		return nil, fmt.Errorf("riscv: need at least 2 opcode bytes, got %d", len(insn))
	}

	length := insnLen(insn)
	candidates := []uint32{pc + uint32(length)}

	switch length {
	case 4:
		if len(insn) < 4 {
			return nil, fmt.Errorf("riscv: need 4 opcode bytes for a non-compressed instruction, got %d", len(insn))
		}
		inst := binary.LittleEndian.Uint32(insn[:4])

		switch {
		case inst&0b1111111 == 0b1101111:
			// JAL
			offset20 := (inst & 0b100000000000_00000_000_00000_00000_00) >> 31
			offset10_1 := (inst & 0b011111111110_00000_000_00000_00000_00) >> 21
			offset19_12 := (inst & 0b000000000000_11111_111_00000_00000_00) >> 12
			offset11 := (inst & 0b000000000001_00000_000_00000_00000_00) >> 20
			offset := (offset10_1 << 1) | (offset11 << 11) | (offset19_12 << 12) | (offset20 << 20)

			target := uint32(int64(pc)+int64(sext(offset, 20))) &^ 1
			candidates = []uint32{target}

		case inst&0b1111111 == 0b1100011:
			// BEQ, BNE, BLT, BGE, BLTU, BGEU
			offset12 := (inst & 0b100000000000_00000_000_00000_00000_00) >> 31
			offset10_5 := (inst & 0b011111100000_00000_000_00000_00000_00) >> 25
			offset4_1 := (inst & 0b1111_0_00000_00) >> 8
			offset11 := (inst & 0b1_00000_00) >> 7
			offset := (offset12 << 12) | (offset11 << 11) | (offset10_5 << 5) | (offset4_1 << 1)

			target := uint32(int64(pc)+int64(sext(offset, 12))) &^ 1
			candidates = append(candidates, target)
		}

	case 2:
		inst := uint32(binary.LittleEndian.Uint16(insn[:2]))

		switch {
		case inst&0b111_00000000000_11 == 0b101_00000000000_01:
			// C.J
			target := cjOffsetTarget(inst, pc)
			candidates = []uint32{target}

		case inst&0b111_00000000000_11 == 0b110_00000000000_01:
			// C.BEQZ
			candidates = append(candidates, cbOffsetTarget(inst, pc))

		case inst&0b111_00000000000_11 == 0b111_00000000000_01:
			// C.BNEZ
			candidates = append(candidates, cbOffsetTarget(inst, pc))

		case inst&0b111_00000000000_11 == 0b001_00000000000_01:
			// C.JAL
			target := cjOffsetTarget(inst, pc)
			candidates = []uint32{target}
		}
	}

	return candidates, nil
}

// cjOffsetTarget decodes the shared C.J/C.JAL 11-bit jump-target immediate.
func cjOffsetTarget(inst uint32, pc uint32) uint32 {
	imm := (inst & 0b000_11111111111_00) >> 2
	offset5 := imm & 0b1
	offset3_1 := (imm & 0b1110) >> 1
	offset7 := (imm & 0b10000) >> 4
	offset6 := (imm & 0b100000) >> 5
	offset10 := (imm & 0b1000000) >> 6
	offset9_8 := (imm & 0b110000000) >> 7
	offset4 := (imm & 0b1000000000) >> 9
	offset11 := (imm & 0b10000000000) >> 10

	offset := (offset3_1 << 1) | (offset4 << 4) | (offset5 << 5) | (offset6 << 6) |
		(offset7 << 7) | (offset9_8 << 8) | (offset10 << 10) | (offset11 << 11)

	return uint32(int64(pc)+int64(sext(offset, 11))) &^ 1
}

// cbOffsetTarget decodes the shared C.BEQZ/C.BNEZ 8-bit branch-target
// immediate.
func cbOffsetTarget(inst uint32, pc uint32) uint32 {
	imm6_2 := (inst & 0b11111_00) >> 2
	imm12_10 := (inst & 0b111_0000000000) >> 10

	offset5 := imm6_2 & 0b1
	offset2_1 := (imm6_2 & 0b110) >> 1
	offset7_6 := (imm6_2 & 0b11000) >> 3
	offset4_3 := imm12_10 & 0b11
	offset8 := (imm12_10 & 0b100) >> 2

	offset := (offset2_1 << 1) | (offset4_3 << 3) | (offset5 << 5) | (offset7_6 << 6) | (offset8 << 8)

	return uint32(int64(pc)+int64(sext(offset, 8))) &^ 1
}

// sext sign-extends value, whose meaningful bits run from 0 to signBit
// inclusive, to a signed 32-bit integer.
func sext(value uint32, signBit uint) int32 {
	if value&(1<<signBit) != 0 {
		return -int32((uint32(1)<<signBit - (value & setbits(signBit))))
	}
	return int32(value)
}

// setbits returns a mask with the low x bits set.
func setbits(x uint) uint32 {
	if x == 0 {
		return 0
	}
	return ^uint32(0) >> (32 - x)
}
