// Package image indexes one or more loaded binary images so the path
// reconstructor can fetch the opcode bytes at a given program counter.
package image

// Accessor is a single contiguous range of bytes loaded at a known base
// address, e.g. one ELF section or one raw memory dump.
type Accessor interface {
	// AddrInRange reports whether addr falls within this accessor's range.
	AddrInRange(addr uint32) bool

	// ReadBytes returns up to n bytes starting at addr. It returns fewer
	// than n bytes if the range doesn't extend that far.
	ReadBytes(addr uint32, n int) []byte
}

// Section is the concrete Accessor backing a flat byte slice loaded at a
// fixed base address — the common case of an ELF section or a raw binary
// blob.
type Section struct {
	Base uint32
	Data []byte
}

// AddrInRange reports whether addr falls within this section.
func (s *Section) AddrInRange(addr uint32) bool {
	if addr < s.Base {
		return false
	}
	return addr < s.Base+uint32(len(s.Data))
}

// ReadBytes returns up to n bytes of this section starting at addr.
func (s *Section) ReadBytes(addr uint32, n int) []byte {
	if !s.AddrInRange(addr) {
		return nil
	}
	off := int(addr - s.Base)
	end := off + n
	if end > len(s.Data) {
		end = len(s.Data)
	}
	return s.Data[off:end]
}

// Index is an ordered list of accessors. Lookups try each in the order it
// was added and return the first one that covers the requested address:
// first-covering-section-wins, across images in Add order.
type Index struct {
	accessors []Accessor
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{}
}

// Add registers an accessor. Accessors are searched in the order they were
// added.
func (idx *Index) Add(a Accessor) {
	idx.accessors = append(idx.accessors, a)
}

// Merge combines several indices into one, preserving precedence: indices
// earlier in the argument list win over later ones, and within each index
// its own Add order is preserved. This is how callers with more than one
// loaded image (e.g. a separately-traced bootloader and application) get a
// single Index to hand to the reconstructor.
func Merge(indices ...*Index) *Index {
	combined := NewIndex()
	for _, idx := range indices {
		if idx == nil {
			continue
		}
		combined.accessors = append(combined.accessors, idx.accessors...)
	}
	return combined
}

// InstructionAt returns up to 4 bytes of opcode at pc — enough for either a
// compressed or standard RV32IC instruction — from the first accessor
// whose range covers pc. It reports false if no accessor covers pc, or if
// fewer than 2 bytes are available there.
func (idx *Index) InstructionAt(pc uint32) ([]byte, bool) {
	for _, a := range idx.accessors {
		if !a.AddrInRange(pc) {
			continue
		}
		b := a.ReadBytes(pc, 4)
		if len(b) < 2 {
			return nil, false
		}
		return b, true
	}
	return nil, false
}
