package image

import "testing"

func TestInstructionAtReadsFromCoveringSection(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Section{Base: 0x1000, Data: []byte{0x01, 0x02, 0x03, 0x04}})

	b, ok := idx.InstructionAt(0x1000)
	if !ok {
		t.Fatalf("InstructionAt(0x1000) ok = false, want true")
	}
	if len(b) != 4 || b[0] != 0x01 {
		t.Fatalf("InstructionAt(0x1000) = %v, want [1 2 3 4]", b)
	}
}

func TestInstructionAtMissReturnsFalse(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Section{Base: 0x1000, Data: []byte{0x01, 0x02, 0x03, 0x04}})

	if _, ok := idx.InstructionAt(0x2000); ok {
		t.Fatalf("InstructionAt(0x2000) ok = true, want false (no covering section)")
	}
}

func TestInstructionAtNearEndOfSectionReturnsShortSlice(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Section{Base: 0x1000, Data: []byte{0xAA, 0xBB}})

	b, ok := idx.InstructionAt(0x1000)
	if !ok {
		t.Fatalf("InstructionAt ok = false, want true")
	}
	if len(b) != 2 {
		t.Fatalf("len(b) = %d, want 2 (only 2 bytes available)", len(b))
	}
}

func TestInstructionAtTooFewBytesReportsMiss(t *testing.T) {
	idx := NewIndex()
	idx.Add(&Section{Base: 0x1000, Data: []byte{0xAA}}) // only 1 byte, below the 2-byte minimum

	if _, ok := idx.InstructionAt(0x1000); ok {
		t.Fatalf("InstructionAt ok = true, want false (fewer than 2 bytes available)")
	}
}

// TestMultiImagePrecedence pins down the first-covering-section-wins rule
// across two images with overlapping ranges: the first image added must
// win even though the second also covers the address.
func TestMultiImagePrecedence(t *testing.T) {
	idx := NewIndex()
	first := &Section{Base: 0x1000, Data: []byte{0x11, 0x11, 0x11, 0x11}}
	second := &Section{Base: 0x1000, Data: []byte{0x22, 0x22, 0x22, 0x22}}
	idx.Add(first)
	idx.Add(second)

	b, ok := idx.InstructionAt(0x1000)
	if !ok {
		t.Fatalf("InstructionAt ok = false, want true")
	}
	if b[0] != 0x11 {
		t.Fatalf("InstructionAt returned bytes from the wrong image: got %#x, want 0x11 (first-added wins)", b[0])
	}

	// A second lookup at an address only a later-added section covers must
	// still find it — overlap precedence is per-address, not per-image.
	third := &Section{Base: 0x2000, Data: []byte{0x33, 0x33, 0x33, 0x33}}
	idx.Add(third)
	b2, ok2 := idx.InstructionAt(0x2000)
	if !ok2 || b2[0] != 0x33 {
		t.Fatalf("InstructionAt(0x2000) = %v, ok=%v, want [0x33 ...], true", b2, ok2)
	}
}

// TestMergePreservesArgumentOrderPrecedence mirrors TestMultiImagePrecedence
// one level up: when several separately-built Index values are combined,
// the earlier argument must win on overlap.
func TestMergePreservesArgumentOrderPrecedence(t *testing.T) {
	a := NewIndex()
	a.Add(&Section{Base: 0x1000, Data: []byte{0xAA, 0xAA, 0xAA, 0xAA}})
	b := NewIndex()
	b.Add(&Section{Base: 0x1000, Data: []byte{0xBB, 0xBB, 0xBB, 0xBB}})
	b.Add(&Section{Base: 0x3000, Data: []byte{0xCC, 0xCC, 0xCC, 0xCC}})

	combined := Merge(a, b)

	got, ok := combined.InstructionAt(0x1000)
	if !ok || got[0] != 0xAA {
		t.Fatalf("InstructionAt(0x1000) = %v, ok=%v, want [0xAA ...], true (a wins over b)", got, ok)
	}
	got2, ok2 := combined.InstructionAt(0x3000)
	if !ok2 || got2[0] != 0xCC {
		t.Fatalf("InstructionAt(0x3000) = %v, ok=%v, want [0xCC ...], true (only b covers it)", got2, ok2)
	}
}

func TestMergeSkipsNilIndices(t *testing.T) {
	a := NewIndex()
	a.Add(&Section{Base: 0x1000, Data: []byte{0xAA, 0xAA}})

	combined := Merge(nil, a, nil)
	if _, ok := combined.InstructionAt(0x1000); !ok {
		t.Fatalf("InstructionAt(0x1000) ok = false, want true")
	}
}
