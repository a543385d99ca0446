package symbolicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolMap_Resolve(t *testing.T) {
	m := SymbolMap{
		{Name: "_foo", Addr: 0x1000},
		{Name: "_bar", Addr: 0x2000},
		{Name: "_baz", Addr: 0x3000},
	}

	sym, off, ok := m.Resolve(0x2010)
	assert.True(t, ok)
	assert.Equal(t, "_bar", sym.Name)
	assert.Equal(t, uint64(0x10), off)
}

func TestSymbolMap_Resolve_ExactMatch(t *testing.T) {
	m := SymbolMap{{Name: "_foo", Addr: 0x1000}}

	sym, off, ok := m.Resolve(0x1000)
	assert.True(t, ok)
	assert.Equal(t, "_foo", sym.Name)
	assert.Equal(t, uint64(0), off)
}

func TestSymbolMap_Resolve_BeforeFirst(t *testing.T) {
	m := SymbolMap{{Name: "_foo", Addr: 0x1000}}

	_, _, ok := m.Resolve(0x500)
	assert.False(t, ok)
}

func TestSymbolMap_Resolve_LargeOffset(t *testing.T) {
	m := SymbolMap{{Name: "_foo", Addr: 0x1000}}

	sym, off, ok := m.Resolve(0x50000)
	assert.True(t, ok, "an unbounded trailing symbol still resolves, just with a large offset")
	assert.Equal(t, "_foo", sym.Name)
	assert.Equal(t, uint64(0x4F000), off)
}

func TestSymbolMap_Resolve_Empty(t *testing.T) {
	var m SymbolMap
	_, _, ok := m.Resolve(0x1000)
	assert.False(t, ok)
}
