package symbolicate

import (
	"debug/macho"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// Disassemble decodes up to len(code) bytes of machine code starting at
// baseAddr into a short instruction listing, one "0xADDR: mnemonic
// operands" line per instruction. Decoding stops at the first instruction
// it can't decode rather than failing the whole listing — a truncated
// context is still useful, and the caller has typically handed us a
// best-effort byte window anyway (see ObjectLoader.ReadCode).
//
// Grounded on golang.org/x/arch's x86asm/arm64asm, the same disassembly
// packages google/pprof uses for its own profile annotation.
func Disassemble(cpu macho.Cpu, code []byte, baseAddr uint64) ([]string, error) {
	switch cpu {
	case macho.CpuAmd64:
		return disassembleX86(code, baseAddr, 64)
	case macho.Cpu386:
		return disassembleX86(code, baseAddr, 32)
	case macho.CpuArm64:
		return disassembleArm64(code, baseAddr)
	default:
		return nil, fmt.Errorf("symbolicate: disassembly unsupported for cpu %v", cpu)
	}
}

func disassembleX86(code []byte, baseAddr uint64, mode int) ([]string, error) {
	var lines []string
	off := 0
	for off < len(code) {
		inst, err := x86asm.Decode(code[off:], mode)
		if err != nil || inst.Len == 0 {
			break
		}
		lines = append(lines, fmt.Sprintf("0x%x: %s", baseAddr+uint64(off), x86asm.GNUSyntax(inst, baseAddr+uint64(off), nil)))
		off += inst.Len
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("symbolicate: no instructions decoded")
	}
	return lines, nil
}

func disassembleArm64(code []byte, baseAddr uint64) ([]string, error) {
	var lines []string
	off := 0
	for off+4 <= len(code) {
		inst, err := arm64asm.Decode(code[off:])
		if err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("0x%x: %s", baseAddr+uint64(off), inst.String()))
		off += 4
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("symbolicate: no instructions decoded")
	}
	return lines, nil
}
