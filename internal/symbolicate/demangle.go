package symbolicate

import (
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// Demangle produces a human-readable form of a mangled symbol name.
// Itanium C++ (_Z...) and both Rust manglings (legacy _ZN...E-shaped and
// v0 _R...) are handled by demangle.Filter. Swift names (_T/$s/_$s
// prefixes) are passed through unchanged — demangle.Filter doesn't
// recognize them and atosl carries no Swift demangler, matching the
// original tool's behavior for symbols it can't demangle.
//
// Grounded on rhysh-go-perf's perfsession-symbolize.go use of
// github.com/ianlancetaylor/demangle.
func Demangle(name string) string {
	if isSwiftMangled(name) {
		return name
	}
	return demangle.Filter(name)
}

func isSwiftMangled(name string) bool {
	switch {
	case strings.HasPrefix(name, "_T"):
		return true
	case strings.HasPrefix(name, "$s"), strings.HasPrefix(name, "_$s"):
		return true
	case strings.HasPrefix(name, "$S"), strings.HasPrefix(name, "_$S"):
		return true
	default:
		return false
	}
}

// CleanSymbolName strips the single leading underscore Mach-O's symbol
// table convention adds to C-linkage names. Itanium/Rust mangled names
// also happen to start with an underscore as part of the mangling itself
// (_Z, _R) — demangle.Filter expects that underscore intact, so names
// starting with _Z, _R or a Swift prefix are left unchanged and only other
// underscore-prefixed names are cleaned, the way metadata_symbols.go's
// TrimPrefix does for plain C symbols.
func CleanSymbolName(name string) string {
	if len(name) > 1 && name[0] == '_' && !looksMangled(name) {
		return name[1:]
	}
	return name
}

func looksMangled(name string) bool {
	return strings.HasPrefix(name, "_Z") || strings.HasPrefix(name, "_R") || isSwiftMangled(name)
}
