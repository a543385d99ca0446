package symbolicate

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Symbolizer resolves addresses against one Mach-O image: DWARF first,
// falling back per-address to the Mach-O symbol table when DWARF has
// nothing to say about that particular address. This mirrors
// dwarf_symbolize_address/symbol_symbolize_address from the original
// atosl tool — the fallback decision is made independently for every
// address in a group, not once for the whole call.
//
// Grounded on the teacher's Symbolizer (internal/agent/debug/symbolizer.go):
// same open-once/resolve-many shape, same cache-by-address idea, adapted
// from ELF+live-process to Mach-O+offline-file.
type Symbolizer struct {
	obj        *ObjectLoader
	dwarfCtx   *DwarfContext // nil if the image carries no DWARF
	binaryName string
	logger     zerolog.Logger
	opts       Options

	// cache is keyed on (addr, loadAddress), not addr alone: §3's
	// GroupAddress explicitly allows the same numeric address to appear
	// in two groups with different load addresses (multiple images), and
	// each group resolves independently against its own SearchAddress. A
	// nil entry records a confirmed per-address failure.
	cache map[cacheKey]*Result
}

type cacheKey struct {
	addr        uint64
	loadAddress uint64
}

// NewSymbolizer opens path and prepares it for repeated resolution calls.
// Absent DWARF data is not an error — atosl still symbolizes from the
// Mach-O symbol table alone, matching is_object_dwarf's role in the
// original tool as a feature check rather than a precondition.
func NewSymbolizer(path string, logger zerolog.Logger, opts Options) (*Symbolizer, error) {
	obj, err := OpenObject(path)
	if err != nil {
		return nil, err
	}

	s := &Symbolizer{
		obj:        obj,
		binaryName: filepath.Base(path),
		logger:     logger,
		opts:       opts.withDefaults(),
		cache:      make(map[cacheKey]*Result),
	}

	if obj.HasDWARF() {
		ctx, err := NewDwarfContext(obj)
		if err != nil {
			logger.Warn().Err(err).Str("binary", s.binaryName).Msg("failed to load dwarf data, falling back to symbol table only")
		} else {
			s.dwarfCtx = ctx
		}
	}

	return s, nil
}

// Close releases the underlying file handle.
func (s *Symbolizer) Close() error {
	return s.obj.Close()
}

// Symbolize resolves every address in every group, in input order,
// against the single image s was opened against. Each group's
// LoadAddress is applied independently, the way group_parse's per-group
// load_address works in the original tool. Addresses that fail to
// resolve are logged (a "N/A - <reason>" line) and elided from the
// returned slice entirely — a per-address failure never appears in
// output, it just shortens it.
func (s *Symbolizer) Symbolize(groups []GroupAddress) []Result {
	var out []Result
	for _, g := range groups {
		for _, addr := range g.Addresses {
			if res, ok := s.resolveOne(addr, g.LoadAddress); ok {
				out = append(out, res)
			}
		}
	}
	return out
}

func (s *Symbolizer) resolveOne(addr, loadAddress uint64) (Result, bool) {
	key := cacheKey{addr: addr, loadAddress: loadAddress}
	if cached, ok := s.cache[key]; ok {
		if cached == nil {
			return Result{}, false
		}
		return *cached, true
	}

	searchAddr, err := SearchAddress(addr, loadAddress, s.obj.TextVMAddr(), s.opts.OffsetTextSegment)
	if err != nil {
		s.logger.Info().Uint64("address", addr).Msgf("N/A - %v", err)
		s.cache[key] = nil
		return Result{}, false
	}

	res := Result{Address: addr, SearchAddr: searchAddr}

	text, ok := s.resolveDWARF(searchAddr)
	if !ok {
		text, ok = s.resolveSymbolTable(searchAddr)
	}
	if !ok {
		s.logger.Info().Uint64("address", addr).Msgf("N/A - no symbol found for 0x%x", addr)
		s.cache[key] = nil
		return Result{}, false
	}
	res.Text = text

	if s.opts.IncludeDisassembly {
		if lines, derr := s.disassemble(searchAddr); derr == nil {
			res.Disassembly = lines
		}
	}

	s.cache[key] = &res
	return res, true
}

// resolveDWARF attempts the DWARF lookup pipeline. Any of ErrArangeMiss,
// ErrSubprogramNotFound, or ErrLineNotFound triggers a fall-through to
// the symbol table for this address only — the rest of the group is
// unaffected.
func (s *Symbolizer) resolveDWARF(searchAddr uint64) (string, bool) {
	if s.dwarfCtx == nil {
		return "", false
	}

	fn, err := s.dwarfCtx.LookupFunction(searchAddr)
	if err != nil {
		if isDwarfMiss(err) {
			return "", false
		}
		s.logger.Debug().Err(err).Msg("dwarf function lookup failed")
		return "", false
	}

	file, line, err := s.dwarfCtx.LookupLine(fn.cuEntry, searchAddr)
	if err != nil {
		if isDwarfMiss(err) {
			return "", false
		}
		s.logger.Debug().Err(err).Msg("dwarf line lookup failed")
		return "", false
	}

	name := Demangle(fn.name)
	return fmt.Sprintf("%s (in %s) (%s:%d)", name, s.binaryName, file, line), true
}

func isDwarfMiss(err error) bool {
	return errors.Is(err, ErrArangeMiss) || errors.Is(err, ErrSubprogramNotFound) || errors.Is(err, ErrLineNotFound)
}

func (s *Symbolizer) resolveSymbolTable(searchAddr uint64) (string, bool) {
	sym, offset, ok := s.obj.SymbolMap().Resolve(searchAddr)
	if !ok {
		return "", false
	}

	if offset > s.opts.LargeOffsetWarningThreshold {
		s.logger.Warn().
			Str("symbol", sym.Name).
			Uint64("offset", offset).
			Uint64("threshold", s.opts.LargeOffsetWarningThreshold).
			Msg("symbol table match has a large offset; result may be low confidence")
	}

	name := Demangle(CleanSymbolName(sym.Name))
	return fmt.Sprintf("%s (in %s) + %d", name, s.binaryName, offset), true
}

func (s *Symbolizer) disassemble(searchAddr uint64) ([]string, error) {
	code, err := s.obj.ReadCode(searchAddr, s.opts.DisassemblyContextBytes)
	if err != nil {
		return nil, err
	}
	return Disassemble(s.obj.CPU(), code, searchAddr)
}
