package atosl

import (
	"fmt"
	"strconv"
)

// ParseAddressString parses one address as it appears on an atos/atosl
// command line or in a crash report: either a "0x"-prefixed hexadecimal
// literal or a plain decimal integer. Parsing is strict — no surrounding
// whitespace, no sign, no trailing garbage, and an empty string is an
// error — matching original_source/src/lib.rs's parse_address_string,
// which does no trimming and relies on Rust's strict numeric parsing to
// reject whitespace outright.
func ParseAddressString(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("atosl: empty address string")
	}

	if hex, ok := stripHexPrefix(s); ok {
		v, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("atosl: invalid hex address %q: %w", s, err)
		}
		return v, nil
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("atosl: invalid decimal address %q: %w", s, err)
	}
	return v, nil
}

func stripHexPrefix(s string) (string, bool) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:], true
	}
	return "", false
}
