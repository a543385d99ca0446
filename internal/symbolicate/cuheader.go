package symbolicate

import (
	"encoding/binary"
	"fmt"
)

// DWARF5 unit_type values that carry extra header fields beyond the
// common compile_unit shape (DWARF5 spec §7.5.1.1).
const (
	dwUTCompile      = 0x01
	dwUTType         = 0x02
	dwUTPartial      = 0x03
	dwUTSkeleton     = 0x04
	dwUTSplitCompile = 0x05
	dwUTSplitType    = 0x06
)

// cuHeaderToFirstDIE computes the byte offset of a compilation unit's
// first DIE, given the offset of the CU's header within .debug_info.
// .debug_aranges' debug_info_offset field points at the header, not the
// DIE, and Go's dwarf.Reader.Seek expects a DIE offset — so this bridges
// the two, ported in semantics (not code) from zhyee-atos-go's dwarf.go
// (GetCUBodyOffset), extended to handle DWARF version 5 unit headers.
func cuHeaderToFirstDIE(debugInfo []byte, cuOffset uint64, bo binary.ByteOrder) (uint64, error) {
	c := &byteCursor{data: debugInfo, off: int(cuOffset), bo: bo}

	unitLength, err := c.u32()
	if err != nil {
		return 0, err
	}
	is64 := false
	if unitLength == 0xffffffff {
		is64 = true
		if _, err := c.u64(); err != nil {
			return 0, err
		}
	}

	version, err := c.u16()
	if err != nil {
		return 0, err
	}
	if version < 2 || version > 5 {
		return 0, fmt.Errorf("symbolicate: debug_info: unsupported CU version %d at offset %d", version, cuOffset)
	}

	offsetSize := 4
	if is64 {
		offsetSize = 8
	}

	if version >= 5 {
		unitType, err := c.u8()
		if err != nil {
			return 0, err
		}
		if _, err := c.u8(); err != nil { // address_size
			return 0, err
		}
		if _, err := c.addr(offsetSize); err != nil { // debug_abbrev_offset
			return 0, err
		}
		switch unitType {
		case dwUTSkeleton, dwUTSplitCompile:
			if _, err := c.u64(); err != nil { // dwo_id
				return 0, err
			}
		case dwUTType, dwUTSplitType:
			if _, err := c.u64(); err != nil { // type_signature
				return 0, err
			}
			if _, err := c.addr(offsetSize); err != nil { // type_offset
				return 0, err
			}
		}
		return uint64(c.off), nil
	}

	// Versions 2-4: debug_abbrev_offset then address_size.
	if _, err := c.addr(offsetSize); err != nil {
		return 0, err
	}
	if _, err := c.u8(); err != nil { // address_size
		return 0, err
	}
	return uint64(c.off), nil
}
