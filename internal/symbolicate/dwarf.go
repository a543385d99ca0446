package symbolicate

import (
	"debug/dwarf"
	"encoding/binary"
	"fmt"
	"io"
)

// DwarfContext bundles the parsed debug/dwarf data with the raw
// .debug_aranges/.debug_info bytes this package parses by hand, so a
// single ObjectLoader's DWARF state is loaded once per process of
// resolving a group of addresses against one image.
type DwarfContext struct {
	data      *dwarf.Data
	aranges   arangeList
	debugInfo []byte
	bo        binary.ByteOrder
}

// NewDwarfContext loads everything needed to resolve addresses against
// o's DWARF data: the stdlib-parsed Data plus a hand-parsed aranges
// table. A missing .debug_aranges section is tolerated — DWARF producers
// aren't required to emit it — callers fall back straight to the symbol
// table in that case, the same way absent per-function aranges entries
// are handled.
func NewDwarfContext(o *ObjectLoader) (*DwarfContext, error) {
	data, err := o.DWARF()
	if err != nil {
		return nil, err
	}
	debugInfo, ok := o.SectionData("__debug_info")
	if !ok {
		return nil, fmt.Errorf("symbolicate: missing __debug_info section")
	}

	ctx := &DwarfContext{data: data, debugInfo: debugInfo, bo: o.ByteOrder()}

	if arangesData, ok := o.SectionData("__debug_aranges"); ok {
		aranges, err := ParseAranges(arangesData, o.ByteOrder())
		if err != nil {
			return nil, fmt.Errorf("symbolicate: parse __debug_aranges: %w", err)
		}
		ctx.aranges = aranges
	}

	return ctx, nil
}

// subprogram is a resolved DW_TAG_subprogram DIE's relevant attributes.
type subprogram struct {
	name    string
	lowPC   uint64
	highPC  uint64 // exclusive
	cuEntry *dwarf.Entry
}

// LookupFunction resolves addr to its covering DW_TAG_subprogram and its
// owning compilation unit, using .debug_aranges to jump directly to the
// right CU rather than scanning every CU in .debug_info.
func (ctx *DwarfContext) LookupFunction(addr uint64) (*subprogram, error) {
	arange, ok := ctx.aranges.Covering(addr)
	if !ok {
		return nil, ErrArangeMiss
	}

	dieOffset, err := cuHeaderToFirstDIE(ctx.debugInfo, arange.CUOffset, ctx.bo)
	if err != nil {
		return nil, fmt.Errorf("symbolicate: cu header at 0x%x: %w", arange.CUOffset, err)
	}

	reader := ctx.data.Reader()
	reader.Seek(dwarf.Offset(dieOffset))
	cuEntry, err := reader.Next()
	if err != nil {
		return nil, fmt.Errorf("symbolicate: read cu die at 0x%x: %w", dieOffset, err)
	}
	if cuEntry == nil {
		return nil, ErrSubprogramNotFound
	}

	for {
		entry, err := reader.Next()
		if err != nil {
			return nil, fmt.Errorf("symbolicate: walk dies: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagSubprogram {
			continue
		}

		low, ok := entry.Val(dwarf.AttrLowpc).(uint64)
		if !ok {
			continue
		}
		high, ok := subprogramHighPC(entry, low)
		if !ok {
			continue
		}
		if addr < low || addr >= high {
			continue
		}

		name, _ := entry.Val(dwarf.AttrName).(string)
		return &subprogram{name: name, lowPC: low, highPC: high, cuEntry: cuEntry}, nil
	}

	return nil, ErrSubprogramNotFound
}

// subprogramHighPC interprets DW_AT_high_pc, which is either an absolute
// address (address class) or an offset from low_pc (any constant class).
// Go's debug/dwarf normalizes every constant-class encoding (data1/2/4/8,
// udata, sdata) to int64 via Entry.Val, so a single type switch already
// covers all of them — no per-width cases are needed.
func subprogramHighPC(entry *dwarf.Entry, low uint64) (uint64, bool) {
	switch v := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		return v, true
	case int64:
		return low + uint64(v), true
	default:
		return 0, false
	}
}

// LookupLine finds the source file and line number covering addr within
// the line-number program belonging to cuEntry.
func (ctx *DwarfContext) LookupLine(cuEntry *dwarf.Entry, addr uint64) (file string, line int, err error) {
	lr, err := ctx.data.LineReader(cuEntry)
	if err != nil {
		return "", 0, fmt.Errorf("symbolicate: line reader: %w", err)
	}
	if lr == nil {
		return "", 0, ErrLineNotFound
	}

	var rows []lineRow
	var entry dwarf.LineEntry
	for {
		rerr := lr.Next(&entry)
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, fmt.Errorf("symbolicate: line program: %w", rerr)
		}
		name := ""
		if entry.File != nil {
			name = entry.File.Name
		}
		rows = append(rows, lineRow{
			Address:     entry.Address,
			File:        name,
			Line:        entry.Line,
			EndSequence: entry.EndSequence,
		})
		// Early exit once a straddle has been confirmed is handled inside
		// straddleScan; here the whole line program is read up to EOF
		// with no cutoff — line programs are small per compilation unit.
	}

	f, l, ok := straddleScan(rows, addr)
	if !ok {
		return "", 0, ErrLineNotFound
	}
	return f, l, nil
}

// lineRow is one decoded line-number-program row, factored out so the
// straddle-scan comparison logic can be unit tested without constructing
// a real DWARF line program.
type lineRow struct {
	Address     uint64
	File        string
	Line        int
	EndSequence bool
}

// straddleScan finds the row whose address range [row.Address, next
// non-end-sequence row's Address) contains addr, returning that row's
// file and line.
//
// The update ordering here is deliberate and easy to get subtly wrong:
// for each non-end-sequence row, the running "last file" is updated
// before the straddle comparison, but the running "last line" is updated
// after it — so a match uses the new row's file together with the
// previous row's line. This mirrors the reference line-table walk this
// package's semantics are ported from; a naive "update both before
// comparing" implementation produces off-by-one-row file/line pairs at
// sequence boundaries where a row changes file and line in the same
// step. EndSequence rows close the current run (addresses in DWARF line
// programs are only monotonic within one sequence) and reset the running
// state.
//
// A straddle whose captured line is 0 is not good enough to stop on: line
// 0 means "no line information," so the scan keeps going past it, letting
// a later straddle with a real line number overwrite the captured result.
// Only a straddle with line > 0 terminates the scan early; if none is
// ever found, the last (possibly line-0) straddle seen is still returned
// as the best available answer. This is ported directly from
// dwarf_symbolize_address's found_line handling in
// original_source/src/atosl.rs, including the fact that a straddle can be
// recaptured across an EndSequence boundary rather than being reset by it.
func straddleScan(rows []lineRow, addr uint64) (file string, line int, ok bool) {
	var lastFile string
	var lastLine int
	var lastAddr uint64
	haveLast := false

	var foundFile string
	var foundLine int
	found := false

	// A first straddle needs addr >= the previous row's address; once a
	// (line-0) straddle has been captured, later rows may overwrite it.
	straddles := func(row lineRow) bool {
		return haveLast && addr < row.Address && (found || addr >= lastAddr)
	}

	for _, row := range rows {
		if row.EndSequence {
			// The end_sequence row's address marks the first address past
			// the last instruction in the sequence, so it still closes
			// out a straddle against the running state before resetting.
			if straddles(row) {
				foundFile, foundLine, found = lastFile, lastLine, true
				if foundLine > 0 {
					return foundFile, foundLine, true
				}
			}
			haveLast = false
			continue
		}

		lastFile = row.File // file updates before the straddle check

		if straddles(row) {
			foundFile, foundLine, found = lastFile, lastLine, true
			if foundLine > 0 {
				return foundFile, foundLine, true
			}
		}

		lastLine = row.Line // line updates after the straddle check
		lastAddr = row.Address
		haveLast = true
	}

	return foundFile, foundLine, found
}
