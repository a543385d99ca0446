package symbolicate

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Arange is one (address-range, owning compilation unit) tuple read out of
// .debug_aranges. CUOffset is the byte offset of the CU's header within
// .debug_info — NOT the offset of its first DIE, since that's what the
// section's debug_info_offset field actually points at. cuHeaderToFirstDIE
// performs the header-size translation needed before handing the offset to
// a dwarf.Reader.
//
// Go's debug/dwarf has no public API for this section at all, so this is
// parsed by hand, grounded on zhyee-atos-go's dwarf.go (ParseDebugAranges).
type Arange struct {
	CUOffset uint64
	LowPC    uint64
	HighPC   uint64 // exclusive
}

// arangeList is a LowPC-sorted slice of Arange supporting binary search.
type arangeList []Arange

func (a arangeList) Len() int           { return len(a) }
func (a arangeList) Less(i, j int) bool { return a[i].LowPC < a[j].LowPC }
func (a arangeList) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }

// Covering returns the arange whose [LowPC, HighPC) range contains addr.
func (a arangeList) Covering(addr uint64) (Arange, bool) {
	idx := sort.Search(len(a), func(i int) bool { return a[i].LowPC > addr })
	if idx == 0 {
		return Arange{}, false
	}
	cand := a[idx-1]
	if addr >= cand.LowPC && addr < cand.HighPC {
		return cand, true
	}
	return Arange{}, false
}

// ParseAranges parses a raw .debug_aranges section into a sorted arangeList.
// It handles one or more concatenated set headers (one per compilation
// unit with emitted aranges) and both 32- and 64-bit DWARF unit-length
// encodings. Segmented addressing (segment_selector_size != 0) is rejected
// as unsupported — Mach-O/DWARF images don't use segments.
func ParseAranges(data []byte, bo binary.ByteOrder) (arangeList, error) {
	c := &byteCursor{data: data, bo: bo}
	var out arangeList

	for c.remaining() > 0 {
		setStart := c.off

		unitLength, err := c.u32()
		if err != nil {
			return nil, err
		}
		is64 := false
		length := uint64(unitLength)
		if unitLength == 0xffffffff {
			is64 = true
			length, err = c.u64()
			if err != nil {
				return nil, err
			}
		}
		setEnd := c.off + int(length)
		if setEnd > len(data) || length == 0 {
			return nil, fmt.Errorf("symbolicate: debug_aranges: invalid unit length at offset %d", setStart)
		}

		version, err := c.u16()
		if err != nil {
			return nil, err
		}
		if version != 2 {
			return nil, fmt.Errorf("symbolicate: debug_aranges: unsupported version %d", version)
		}

		var cuOffset uint64
		if is64 {
			cuOffset, err = c.u64()
		} else {
			var v uint32
			v, err = c.u32()
			cuOffset = uint64(v)
		}
		if err != nil {
			return nil, err
		}

		addressSize, err := c.u8()
		if err != nil {
			return nil, err
		}
		segSelSize, err := c.u8()
		if err != nil {
			return nil, err
		}
		if segSelSize != 0 {
			return nil, fmt.Errorf("symbolicate: debug_aranges: segmented addressing unsupported")
		}

		// Header is padded so the first tuple starts on a boundary that is
		// a multiple of 2*address_size, measured from the start of the set
		// (setStart), per the DWARF spec.
		tupleSize := 2 * int(addressSize)
		if tupleSize > 0 {
			headerLen := c.off - setStart
			pad := (tupleSize - headerLen%tupleSize) % tupleSize
			c.off += pad
		}

		for c.off < setEnd {
			low, err := c.addr(int(addressSize))
			if err != nil {
				return nil, err
			}
			length, err := c.addr(int(addressSize))
			if err != nil {
				return nil, err
			}
			if low == 0 && length == 0 {
				break
			}
			out = append(out, Arange{CUOffset: cuOffset, LowPC: low, HighPC: low + length})
		}

		c.off = setEnd
	}

	sort.Sort(out)
	return out, nil
}
