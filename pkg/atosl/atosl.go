// Package atosl is the public entry point for offline Mach-O address
// symbolication: given a binary path and one or more groups of
// (load address, addresses) pairs, it returns a formatted resolution for
// every address it can resolve, preserving input order; addresses that
// fail to resolve are left out.
//
// The Request/Response shape mirrors the flat and grouped forms the
// original atosl tool exposed across its FFI boundary (parse/group_parse
// in original_source/src/lib.rs): a single top-level success/message
// envelope wrapping one result per resolved input address.
package atosl

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/atosl/internal/symbolicate"
)

// GroupInput is one load address and the addresses that should be
// resolved against it. Addresses arrive as strings (hex or decimal, see
// ParseAddressString), matching how they cross the original tool's FFI
// boundary.
type GroupInput struct {
	LoadAddress string   `json:"load_address"`
	Addresses   []string `json:"addresses"`
}

// Request describes one symbolication call against a single binary.
//
// Exactly one of the flat form (LoadAddress+Addresses) or the grouped
// form (Groups) must be given. Supplying both, or neither, is a
// CallFatal argument error surfaced through Response.Message.
type Request struct {
	File string `json:"file"`

	// Flat form: a single load address applied to every address.
	LoadAddress string   `json:"load_address,omitempty"`
	Addresses   []string `json:"addresses,omitempty"`

	// Grouped form: each group carries its own load address.
	Groups []GroupInput `json:"groups,omitempty"`

	// OffsetTextSegment selects offset mode: Addresses are runtime
	// (crash-report) PCs that must be de-slid by each group's
	// LoadAddress and re-slid into the binary's native __TEXT space.
	// When false, Addresses are already file-relative.
	OffsetTextSegment bool `json:"offset_text_segment,omitempty"`

	// IncludeDisassembly attaches a short instruction listing to each
	// successfully resolved address.
	IncludeDisassembly bool `json:"include_disassembly,omitempty"`

	// DisassemblyContextBytes bounds the disassembly window. Zero uses
	// the package default.
	DisassemblyContextBytes int `json:"-"`

	// LargeOffsetWarningThreshold is the symbol-table offset above which
	// a low-confidence warning is logged. Zero uses the package default.
	LargeOffsetWarningThreshold uint64 `json:"-"`
}

// ResponseResult is one address's resolution.
type ResponseResult struct {
	Address uint64 `json:"address"`
	Result  string `json:"result"`

	// Disassembly is set only when Request.IncludeDisassembly is true and
	// the binary's architecture could be decoded.
	Disassembly []string `json:"disassembly,omitempty"`
}

// Response is the top-level result of a Symbolize call. Success is false
// only when the request is malformed or the binary could not be opened —
// per-address failures never flip it; they're omitted from Data and
// logged instead, matching the original tool's behavior of never failing
// a whole call over one bad address.
type Response struct {
	Success bool             `json:"success"`
	Data    []ResponseResult `json:"data"`
	Message *string          `json:"message"`
}

// Symbolize resolves req against its binary, discarding diagnostic
// logging. Use SymbolizeWithLogger to observe warnings (large symbol
// offsets, missing DWARF) as they're produced.
func Symbolize(req Request) Response {
	return SymbolizeWithLogger(zerolog.Nop(), req)
}

// SymbolizeWithLogger is Symbolize with caller-supplied logging.
func SymbolizeWithLogger(logger zerolog.Logger, req Request) Response {
	groups, err := req.toGroups()
	if err != nil {
		return failResponse(err)
	}

	opts := symbolicate.Options{
		OffsetTextSegment:           req.OffsetTextSegment,
		IncludeDisassembly:          req.IncludeDisassembly,
		DisassemblyContextBytes:     req.DisassemblyContextBytes,
		LargeOffsetWarningThreshold: req.LargeOffsetWarningThreshold,
	}

	results, err := symbolize(logger, req.File, groups, opts)
	if err != nil {
		return failResponse(err)
	}

	data := make([]ResponseResult, len(results))
	for i, r := range results {
		data[i] = ResponseResult{Address: r.Address, Result: r.Text, Disassembly: r.Disassembly}
	}
	return Response{Success: true, Data: data}
}

// symbolize is the single internal entry point both the flat and grouped
// forms funnel into once their arguments have been shaped into groups —
// every bit of symbolization logic past argument validation lives here
// exactly once.
func symbolize(logger zerolog.Logger, file string, groups []symbolicate.GroupAddress, opts symbolicate.Options) ([]symbolicate.Result, error) {
	sym, err := symbolicate.NewSymbolizer(file, logger, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := sym.Close(); cerr != nil {
			logger.Warn().Err(cerr).Str("binary", file).Msg("failed to close binary")
		}
	}()

	return sym.Symbolize(groups), nil
}

// toGroups validates that exactly one of the flat or grouped forms was
// given and converts it into symbolicate.GroupAddress values, parsing
// every string address along the way.
func (r Request) toGroups() ([]symbolicate.GroupAddress, error) {
	flatGiven := r.LoadAddress != "" || len(r.Addresses) > 0
	groupedGiven := len(r.Groups) > 0

	if flatGiven == groupedGiven {
		return nil, fmt.Errorf("exactly one of (load_address, addresses) or groups must be given")
	}

	if flatGiven {
		load, err := ParseAddressString(r.LoadAddress)
		if err != nil {
			return nil, fmt.Errorf("load_address: %w", err)
		}
		addrs, err := parseAddressStrings(r.Addresses)
		if err != nil {
			return nil, err
		}
		return []symbolicate.GroupAddress{{LoadAddress: load, Addresses: addrs}}, nil
	}

	groups := make([]symbolicate.GroupAddress, len(r.Groups))
	for i, g := range r.Groups {
		load, err := ParseAddressString(g.LoadAddress)
		if err != nil {
			return nil, fmt.Errorf("groups[%d].load_address: %w", i, err)
		}
		addrs, err := parseAddressStrings(g.Addresses)
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		groups[i] = symbolicate.GroupAddress{LoadAddress: load, Addresses: addrs}
	}
	return groups, nil
}

func parseAddressStrings(in []string) ([]uint64, error) {
	out := make([]uint64, len(in))
	for i, a := range in {
		v, err := ParseAddressString(a)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", a, err)
		}
		out[i] = v
	}
	return out, nil
}

func failResponse(err error) Response {
	msg := err.Error()
	return Response{Success: false, Data: []ResponseResult{}, Message: &msg}
}
