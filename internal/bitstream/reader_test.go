package bitstream

import "testing"

func TestGetBitsLSBFirst(t *testing.T) {
	// 0b10110010 -> low 4 bits = 0b0010 = 2, next 4 bits = 0b1011 = 11
	r := NewReader([]byte{0b10110010})

	if got := r.GetBits(4); got != 0b0010 {
		t.Fatalf("GetBits(4) = %#x, want 0x2", got)
	}
	if got := r.GetBits(4); got != 0b1011 {
		t.Fatalf("GetBits(4) = %#x, want 0xb", got)
	}
}

func TestGetBitsCrossesByteBoundary(t *testing.T) {
	// bytes: 0xFF, 0x01 -> reading 9 bits LSB-first gives 0b1_11111111 = 0x1FF
	r := NewReader([]byte{0xFF, 0x01})

	got := r.GetBits(9)
	if want := uint32(0x1FF); got != want {
		t.Fatalf("GetBits(9) = %#x, want %#x", got, want)
	}
}

func TestHasDataAndTotalBits(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00})

	if !r.HasData(16) {
		t.Fatalf("HasData(16) = false, want true")
	}
	if r.HasData(17) {
		t.Fatalf("HasData(17) = true, want false")
	}
	if r.TotalBits() != 16 {
		t.Fatalf("TotalBits() = %d, want 16", r.TotalBits())
	}

	r.GetBits(16)
	if r.HasData(1) {
		t.Fatalf("HasData(1) after consuming all bits = true, want false")
	}
}

func TestSkipUntil(t *testing.T) {
	r := NewReader([]byte{0xAB, 0xCD})

	r.GetBits(3)
	r.SkipUntil(8)
	if r.BitPos() != 8 {
		t.Fatalf("BitPos() = %d, want 8", r.BitPos())
	}

	got := r.GetBits(8)
	if want := uint32(0xCD); got != want {
		t.Fatalf("GetBits(8) after skip = %#x, want %#x", got, want)
	}
}

func TestSkipUntilIsNoOpWhenAlreadyPast(t *testing.T) {
	r := NewReader([]byte{0xFF})
	r.GetBits(8)
	r.SkipUntil(4) // already past 4; must not advance further or panic
	if r.BitPos() != 8 {
		t.Fatalf("BitPos() = %d, want 8", r.BitPos())
	}
}

func TestBitPosAdvancesPerBit(t *testing.T) {
	r := NewReader([]byte{0x00, 0x00, 0x00})
	for i := 0; i < 17; i++ {
		r.NextBit()
	}
	if r.BitPos() != 17 {
		t.Fatalf("BitPos() = %d, want 17", r.BitPos())
	}
}
