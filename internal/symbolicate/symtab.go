package symbolicate

import (
	"debug/macho"
	"sort"
)

// Mach-O nlist type-field masks (mach-o/nlist.h), not exposed as named
// constants by debug/macho.
const (
	machoNTypeMask = 0x0e // N_TYPE
	machoNSect     = 0x0e // N_SECT: symbol is defined in a section
	machoNStab     = 0xe0 // N_STAB: any bit set means a debugger symbol
)

// SymbolEntry is one defined, non-debugger Mach-O symbol-table entry.
type SymbolEntry struct {
	Name string
	Addr uint64
}

// SymbolMap is a address-sorted symbol table supporting nearest-preceding
// lookup, grounded on the teacher's kernel_symbolizer.go sorted-slice +
// sort.Search pattern and on atos.go's ResolveNameFromSymTab.
type SymbolMap []SymbolEntry

func (m SymbolMap) Len() int           { return len(m) }
func (m SymbolMap) Less(i, j int) bool { return m[i].Addr < m[j].Addr }
func (m SymbolMap) Swap(i, j int)      { m[i], m[j] = m[j], m[i] }

// buildSymbolMap extracts the defined, section-resident symbols from a
// Mach-O symbol table, discarding stabs/debugger symbols and undefined
// (N_UNDF) imports that carry no address.
func buildSymbolMap(f *macho.File) SymbolMap {
	if f.Symtab == nil {
		return nil
	}
	out := make(SymbolMap, 0, len(f.Symtab.Syms))
	for _, sym := range f.Symtab.Syms {
		if sym.Type&machoNStab != 0 {
			continue
		}
		if sym.Type&machoNTypeMask != machoNSect {
			continue
		}
		if sym.Sect == 0 {
			continue
		}
		out = append(out, SymbolEntry{Name: sym.Name, Addr: sym.Value})
	}
	sort.Sort(out)
	return out
}

// Resolve returns the symbol with the greatest address not exceeding addr,
// along with addr's offset from that symbol's start. Mach-O nlist entries
// carry no size field, so there is no upper-bound check here; a very
// large offset is a valid match and is flagged by the caller using
// Options.LargeOffsetWarningThreshold rather than rejected.
func (m SymbolMap) Resolve(addr uint64) (SymbolEntry, uint64, bool) {
	idx := sort.Search(len(m), func(i int) bool { return m[i].Addr > addr })
	if idx == 0 {
		return SymbolEntry{}, 0, false
	}
	sym := m[idx-1]
	return sym, addr - sym.Addr, true
}
