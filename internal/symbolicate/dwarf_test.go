package symbolicate

import (
	"debug/dwarf"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStraddleScan_MidRow(t *testing.T) {
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 10},
		{Address: 0x1010, File: "a.c", Line: 11},
		{Address: 0x1020, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x1005)
	assert.True(t, ok)
	assert.Equal(t, "a.c", file)
	assert.Equal(t, 10, line)
}

func TestStraddleScan_LastRowBeforeEndSequence(t *testing.T) {
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 10},
		{Address: 0x1010, File: "a.c", Line: 11},
		{Address: 0x1020, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x1015)
	assert.True(t, ok, "the final row before end_sequence must still resolve")
	assert.Equal(t, "a.c", file)
	assert.Equal(t, 11, line)
}

func TestStraddleScan_BeforeFirstRow(t *testing.T) {
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 10},
		{Address: 0x1020, EndSequence: true},
	}

	_, _, ok := straddleScan(rows, 0x500)
	assert.False(t, ok, "an address before the first row in the sequence has no covering row")
}

func TestStraddleScan_PastEndOfSequence(t *testing.T) {
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 10},
		{Address: 0x1020, EndSequence: true},
	}

	_, _, ok := straddleScan(rows, 0x2000)
	assert.False(t, ok)
}

func TestStraddleScan_FileChangeAtStraddlingRow(t *testing.T) {
	// A row that both changes file and straddles addr returns the NEW
	// file paired with the OLD (stale) line, per the update-ordering this
	// package is grounded on.
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 10},
		{Address: 0x1010, File: "b.c", Line: 5},
		{Address: 0x1020, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x1005)
	assert.True(t, ok)
	assert.Equal(t, "b.c", file)
	assert.Equal(t, 10, line)
}

func TestStraddleScan_ZeroLineStraddleContinuesToLaterStraddle(t *testing.T) {
	// A straddle whose captured line is 0 isn't good enough to stop on;
	// the scan must keep going and pick up the later straddle at 0x1010,
	// whose line is non-zero.
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 0},
		{Address: 0x1010, File: "a.c", Line: 5},
		{Address: 0x1020, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x1005)
	assert.True(t, ok)
	assert.Equal(t, "a.c", file)
	assert.Equal(t, 5, line)
}

func TestStraddleScan_ZeroLineStraddleIsLastResortWhenNoneIsNonZero(t *testing.T) {
	// If no straddle ever captures a non-zero line, the last (zero-line)
	// straddle seen is still returned rather than failing outright.
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 0},
		{Address: 0x1020, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x1005)
	assert.True(t, ok)
	assert.Equal(t, "a.c", file)
	assert.Equal(t, 0, line)
}

func TestStraddleScan_MultipleSequences(t *testing.T) {
	rows := []lineRow{
		{Address: 0x1000, File: "a.c", Line: 1},
		{Address: 0x1010, EndSequence: true},
		{Address: 0x2000, File: "b.c", Line: 100},
		{Address: 0x2010, EndSequence: true},
	}

	file, line, ok := straddleScan(rows, 0x2005)
	assert.True(t, ok)
	assert.Equal(t, "b.c", file)
	assert.Equal(t, 100, line)

	// An address that falls in the gap between sequences resolves
	// against neither.
	_, _, ok = straddleScan(rows, 0x1800)
	assert.False(t, ok)
}

func TestStraddleScan_Empty(t *testing.T) {
	_, _, ok := straddleScan(nil, 0x1000)
	assert.False(t, ok)
}

func entryWithHighPC(val interface{}) *dwarf.Entry {
	return &dwarf.Entry{
		Field: []dwarf.Field{
			{Attr: dwarf.AttrHighpc, Val: val},
		},
	}
}

func TestSubprogramHighPC_Address(t *testing.T) {
	// high_pc as an absolute address (address class).
	got, ok := subprogramHighPC(entryWithHighPC(uint64(0x2000)), 0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x2000), got)
}

func TestSubprogramHighPC_Offset(t *testing.T) {
	// high_pc as a constant-class offset from low_pc; Go's debug/dwarf
	// normalizes every constant width (data1/2/4/8/udata/sdata) to int64.
	got, ok := subprogramHighPC(entryWithHighPC(int64(0x50)), 0x1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(0x1050), got)
}

func TestSubprogramHighPC_Unsupported(t *testing.T) {
	_, ok := subprogramHighPC(entryWithHighPC("nonsense"), 0x1000)
	assert.False(t, ok)
}
