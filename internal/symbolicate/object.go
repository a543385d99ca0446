package symbolicate

import (
	"debug/dwarf"
	"debug/macho"
	"encoding/binary"
	"fmt"
	"runtime"
)

// ObjectLoader wraps a parsed Mach-O image (thin or fat) and exposes the
// handful of primitives the rest of the package needs: segment/section
// lookup, a sorted symbol map for binary-search resolution, and the
// __TEXT segment's native VM address used by AddressMapper's offset mode.
//
// Grounded on the teacher's ELF-oriented Symbolizer (internal/agent/debug
// /symbolizer.go), generalized to Mach-O and fat-binary arch selection the
// way atos.go's OpenMachO/Parse does it.
type ObjectLoader struct {
	path string
	file *macho.File
	fat  *macho.FatFile

	textVMAddr     uint64
	textVMAddrOK   bool
	symbolMap      SymbolMap
	symbolMapBuilt bool
}

// OpenObject opens the Mach-O file at path, selecting a single architecture
// slice out of a fat binary when necessary.
func OpenObject(path string) (*ObjectLoader, error) {
	f, err := macho.Open(path)
	if err == nil {
		return &ObjectLoader{path: path, file: f}, nil
	}

	ff, ferr := macho.OpenFat(path)
	if ferr != nil {
		// Neither thin nor fat open succeeded; report the thin-open error
		// since it's produced by the common path.
		return nil, fmt.Errorf("symbolicate: open %s: %w", path, err)
	}

	arch, aerr := selectFatArch(ff)
	if aerr != nil {
		_ = ff.Close()
		return nil, fmt.Errorf("symbolicate: open %s: %w", path, aerr)
	}
	return &ObjectLoader{path: path, file: arch.File, fat: ff}, nil
}

// selectFatArch prefers the slice matching runtime.GOARCH, falling back to
// the first architecture present. The original atos CLI always runs on
// the host whose crash report it's symbolicating, so GOARCH is the right
// default; spec.md is silent on fat-binary selection, so this is a
// documented design decision rather than a spec requirement.
func selectFatArch(ff *macho.FatFile) (*macho.FatArch, error) {
	if len(ff.Arches) == 0 {
		return nil, fmt.Errorf("symbolicate: fat binary has no architecture slices")
	}
	if want := goarchToMachoCPU(runtime.GOARCH); want != 0 {
		for i := range ff.Arches {
			if ff.Arches[i].Cpu == want {
				return &ff.Arches[i], nil
			}
		}
	}
	return &ff.Arches[0], nil
}

func goarchToMachoCPU(goarch string) macho.Cpu {
	switch goarch {
	case "amd64":
		return macho.CpuAmd64
	case "arm64":
		return macho.CpuArm64
	case "386":
		return macho.Cpu386
	case "arm":
		return macho.CpuArm
	default:
		return 0
	}
}

// Close releases the underlying file handle(s).
func (o *ObjectLoader) Close() error {
	err := o.file.Close()
	if o.fat != nil {
		if ferr := o.fat.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}
	return err
}

// Path returns the path the image was opened from.
func (o *ObjectLoader) Path() string {
	return o.path
}

// CPU reports the image's Mach-O CPU type, used to select a disassembler.
func (o *ObjectLoader) CPU() macho.Cpu {
	return o.file.Cpu
}

// ByteOrder reports the image's native byte order, needed by the two
// hand-rolled DWARF parsers (aranges and CU headers) that read raw bytes
// directly rather than through debug/dwarf.
func (o *ObjectLoader) ByteOrder() binary.ByteOrder {
	return o.file.ByteOrder
}

// HasDWARF reports whether the image carries a __debug_line section,
// mirroring atosl.rs's is_object_dwarf check.
func (o *ObjectLoader) HasDWARF() bool {
	return o.file.Section("__debug_line") != nil
}

// DWARF returns the parsed DWARF data for the image via the stdlib's
// high-level constructor, which already assembles .debug_info/abbrev/str
// /line_str/str_offsets correctly for DWARF versions 2 through 5.
func (o *ObjectLoader) DWARF() (*dwarf.Data, error) {
	d, err := o.file.DWARF()
	if err != nil {
		return nil, fmt.Errorf("symbolicate: parse dwarf: %w", err)
	}
	return d, nil
}

// SectionData returns the raw bytes of the section with exactly this name,
// or ok=false if it is absent or unreadable. The bytes are not
// decompressed, and a __zdebug_* section is not found under its __debug_*
// name.
func (o *ObjectLoader) SectionData(name string) (data []byte, ok bool) {
	sec := o.file.Section(name)
	if sec == nil {
		return nil, false
	}
	b, err := sec.Data()
	if err != nil {
		return nil, false
	}
	return b, true
}

// TextVMAddr returns the native (file-relative) VM address of the __TEXT
// segment, used to re-slide addresses in AddressMapper's offset mode.
// Absent a __TEXT segment (not expected for real binaries but not fatal
// here), it returns 0 — the same default used when no segment table
// could be consulted at all.
func (o *ObjectLoader) TextVMAddr() uint64 {
	if o.textVMAddrOK {
		return o.textVMAddr
	}
	for _, seg := range o.file.Segments() {
		if seg.Name == "__TEXT" {
			o.textVMAddr = seg.Addr
			break
		}
	}
	o.textVMAddrOK = true
	return o.textVMAddr
}

// SectionCovering returns the section containing addr (a native VM
// address within __TEXT space) along with the byte offset of addr within
// that section's data, for use by the disassembly helper.
func (o *ObjectLoader) SectionCovering(addr uint64) (*macho.Section, uint64, bool) {
	for _, sec := range o.file.Sections {
		if sec.Addr == 0 {
			continue
		}
		end := sec.Addr + sec.Size
		if addr >= sec.Addr && addr < end {
			return sec, addr - sec.Addr, true
		}
	}
	return nil, 0, false
}

// ReadCode returns up to n bytes of raw section data starting at the
// native VM address addr, for disassembly context. It truncates at the
// end of the covering section rather than erroring.
func (o *ObjectLoader) ReadCode(addr uint64, n int) ([]byte, error) {
	sec, off, ok := o.SectionCovering(addr)
	if !ok {
		return nil, fmt.Errorf("symbolicate: no section covers address 0x%x", addr)
	}
	data, err := sec.Data()
	if err != nil {
		return nil, fmt.Errorf("symbolicate: read section %s: %w", sec.Name, err)
	}
	if off >= uint64(len(data)) {
		return nil, fmt.Errorf("symbolicate: offset 0x%x beyond section %s data", off, sec.Name)
	}
	end := off + uint64(n)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return data[off:end], nil
}

// SymbolMap lazily builds and caches the sorted symbol table used for
// fallback resolution.
func (o *ObjectLoader) SymbolMap() SymbolMap {
	if o.symbolMapBuilt {
		return o.symbolMap
	}
	o.symbolMap = buildSymbolMap(o.file)
	o.symbolMapBuilt = true
	return o.symbolMap
}
