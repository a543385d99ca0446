// Package symbolicate implements the offline Mach-O address symbolization
// engine: relocation arithmetic, the DWARF aranges/info/line lookup
// pipeline, Mach-O symbol-table fallback, and demangling.
package symbolicate

// GroupAddress pairs one load address with the addresses that should be
// resolved against it. Multiple groups may share a single ObjectLoader and
// DwarfContext so repeated calls against the same image amortize parsing.
type GroupAddress struct {
	LoadAddress uint64
	Addresses   []uint64
}

// Result is one successfully symbolicated address. Address echoes the
// input untransformed; Text is the formatted symbolication (see
// Symbolizer for the exact string formats). Disassembly is populated only
// when Options.IncludeDisassembly is set and the architecture is
// supported.
type Result struct {
	Address      uint64
	Text         string
	SearchAddr   uint64
	Disassembly  []string
}

// Options controls Symbolizer behavior beyond the core pipeline.
type Options struct {
	// OffsetTextSegment selects AddressMapper's offset mode: addresses are
	// crash-report PCs that must be de-slid by LoadAddress and re-slid
	// into the object's native __TEXT VM space before lookup.
	OffsetTextSegment bool

	// IncludeDisassembly attaches a short instruction listing around the
	// resolved search address to each successful Result.
	IncludeDisassembly bool

	// DisassemblyContextBytes bounds how many raw instruction bytes are
	// read for disassembly. Zero uses DefaultOptions's value.
	DisassemblyContextBytes int

	// LargeOffsetWarningThreshold is the symbol-table offset above which
	// a low-confidence warning is logged (the match is still returned).
	// Zero uses DefaultOptions's value.
	LargeOffsetWarningThreshold uint64
}

// DefaultOptions returns the Options a bare Request should use.
func DefaultOptions() Options {
	return Options{
		DisassemblyContextBytes:     64,
		LargeOffsetWarningThreshold: 0x10000,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DisassemblyContextBytes == 0 {
		o.DisassemblyContextBytes = d.DisassemblyContextBytes
	}
	if o.LargeOffsetWarningThreshold == 0 {
		o.LargeOffsetWarningThreshold = d.LargeOffsetWarningThreshold
	}
	return o
}
