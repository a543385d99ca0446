// Package profilesource ingests pprof profiles (github.com/google/pprof's
// profile package — the same disassembly/profile ecosystem the teacher
// and the rest of the example pack already depend on) and extracts the
// per-binary address groups atosl's symbolicate engine needs, then maps
// resolved text back onto the profile's locations for reporting.
//
// This supplements the single-binary/single-request form the original
// CLI exposed: bulk profiles commonly reference many mappings (shared
// libraries, the main binary, JIT regions) in one file, each needing its
// own load address.
package profilesource

import (
	"fmt"
	"io"

	"github.com/google/pprof/profile"

	"github.com/coral-mesh/atosl/internal/symbolicate"
)

// BinaryGroup is one pprof Mapping's load address and the (deduplicated,
// order-preserving) addresses any Location referencing it used.
type BinaryGroup struct {
	File        string
	LoadAddress uint64
	Addresses   []uint64

	// locationIDs[i] lists every Location.ID whose Address equals
	// Addresses[i], since a profile's Locations are not required to be
	// address-unique only by construction — sampling can revisit the
	// same PC across many stack traces.
	locationIDs [][]uint64
}

// LoadProfile parses a pprof profile from r.
func LoadProfile(r io.Reader) (*profile.Profile, error) {
	p, err := profile.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("profilesource: parse profile: %w", err)
	}
	return p, nil
}

// ExtractGroups partitions prof's locations by owning Mapping, in the
// order each mapping is first referenced. Locations with no Mapping
// (synthetic or already-symbolized entries) are skipped.
func ExtractGroups(prof *profile.Profile) []BinaryGroup {
	type acc struct {
		group    BinaryGroup
		addrIdx  map[uint64]int
	}

	byMapping := make(map[uint64]*acc)
	var order []uint64

	for _, loc := range prof.Location {
		if loc.Mapping == nil {
			continue
		}
		mid := loc.Mapping.ID
		a, ok := byMapping[mid]
		if !ok {
			a = &acc{
				group: BinaryGroup{
					File:        loc.Mapping.File,
					LoadAddress: loc.Mapping.Start,
				},
				addrIdx: make(map[uint64]int),
			}
			byMapping[mid] = a
			order = append(order, mid)
		}

		idx, ok := a.addrIdx[loc.Address]
		if !ok {
			idx = len(a.group.Addresses)
			a.addrIdx[loc.Address] = idx
			a.group.Addresses = append(a.group.Addresses, loc.Address)
			a.group.locationIDs = append(a.group.locationIDs, nil)
		}
		a.group.locationIDs[idx] = append(a.group.locationIDs[idx], loc.ID)
	}

	out := make([]BinaryGroup, 0, len(order))
	for _, mid := range order {
		out = append(out, byMapping[mid].group)
	}
	return out
}

// OpenFunc opens a Symbolizer for the given binary path. Callers
// typically pass symbolicate.NewSymbolizer bound to a shared logger and
// Options.
type OpenFunc func(path string) (*symbolicate.Symbolizer, error)

// Annotate resolves every BinaryGroup extracted from a profile and
// returns a map from pprof Location.ID to formatted symbolication text.
// A mapping whose binary can't be opened is not fatal to the whole
// call — every location under that mapping gets an "N/A - ..." entry and
// extraction continues with the remaining mappings. Addresses the
// symbolizer itself can't resolve are simply absent from the result map,
// the same per-address elision Symbolizer.Symbolize applies.
func Annotate(groups []BinaryGroup, open OpenFunc) (map[uint64]string, error) {
	out := make(map[uint64]string)

	for _, g := range groups {
		sym, err := open(g.File)
		if err != nil {
			msg := fmt.Sprintf("N/A - %v", err)
			for _, ids := range g.locationIDs {
				for _, id := range ids {
					out[id] = msg
				}
			}
			continue
		}

		results := sym.Symbolize([]symbolicate.GroupAddress{{
			LoadAddress: g.LoadAddress,
			Addresses:   g.Addresses,
		}})
		_ = sym.Close()

		// Symbolize elides addresses it couldn't resolve, so results is
		// not positionally aligned with g.Addresses/g.locationIDs once
		// any address in the group fails — match back up by address
		// value instead of by index.
		textByAddr := make(map[uint64]string, len(results))
		for _, r := range results {
			textByAddr[r.Address] = r.Text
		}

		for i, addr := range g.Addresses {
			text, ok := textByAddr[addr]
			if !ok {
				continue
			}
			for _, id := range g.locationIDs[i] {
				out[id] = text
			}
		}
	}

	return out, nil
}
