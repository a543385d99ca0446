package symbolicate

import "fmt"

// SearchAddress implements the single relocation rule everything else in
// this package depends on.
//
// Two calling conventions coexist. In offset mode the caller supplies a
// runtime (crash-report) PC, which is de-slid by loadAddress and re-slid
// into the object's native __TEXT VM space — that's the space both the
// symbol map and the DWARF aranges table are keyed on. In non-offset mode
// the caller has already converted to a file-relative address and it must
// not be touched, but the loadAddress subtraction is still performed as a
// validity check (addr must be >= loadAddress either way).
func SearchAddress(addr, loadAddress, textVMAddr uint64, offsetMode bool) (uint64, error) {
	slid := addr - loadAddress
	if slid > addr {
		// unsigned underflow: addr < loadAddress.
		return 0, fmt.Errorf("%w: addr=0x%x load_address=0x%x", ErrAddressUnderflow, addr, loadAddress)
	}
	if !offsetMode {
		return addr, nil
	}
	search := slid + textVMAddr
	if search < slid {
		// unsigned overflow.
		return 0, fmt.Errorf("%w: slid=0x%x text_vmaddr=0x%x", ErrAddressOverflow, slid, textVMAddr)
	}
	return search, nil
}
