package symbolicate

import "errors"

// Per-address error kinds. DwarfMiss-shaped errors (ErrArangeMiss,
// ErrSubprogramNotFound, ErrLineNotFound) trigger fallback to the symbol
// table at the Symbolizer facade; ErrSymbolNotFound and ErrStringDecoding
// are terminal for that address. None of these abort the whole call — see
// Symbolizer.Symbolize.
var (
	// ErrAddressUnderflow is returned by SearchAddress when addr < loadAddress.
	ErrAddressUnderflow = errors.New("symbolicate: address underflow: addr below load address")

	// ErrAddressOverflow is returned by SearchAddress when the offset-mode
	// re-slide (slid + textVMAddr) overflows a uint64.
	ErrAddressOverflow = errors.New("symbolicate: address overflow: slid address plus __TEXT vmaddr wraps")

	// ErrArangeMiss means no .debug_aranges entry covers the address.
	ErrArangeMiss = errors.New("symbolicate: no covering arange")

	// ErrSubprogramNotFound means the selected compilation unit has no
	// DW_TAG_subprogram DIE whose low_pc/high_pc range covers the address.
	ErrSubprogramNotFound = errors.New("symbolicate: no covering subprogram")

	// ErrLineNotFound means the line-number program for the selected CU
	// produced no row straddling the address. A straddle whose line is 0
	// is still returned as a result, not reported as this error.
	ErrLineNotFound = errors.New("symbolicate: no straddling line row")

	// ErrSymbolNotFound means the Mach-O symbol table has no defined
	// symbol at or before the address.
	ErrSymbolNotFound = errors.New("symbolicate: no preceding symbol")

	// ErrStringDecoding means a DWARF string attribute could not be read.
	ErrStringDecoding = errors.New("symbolicate: dwarf string decoding failed")
)
