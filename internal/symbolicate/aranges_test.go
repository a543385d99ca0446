package symbolicate

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildArangesSet constructs one well-formed 32-bit-DWARF .debug_aranges
// set with a single tuple, matching the header-plus-padding-plus-tuples
// layout ParseAranges expects.
func buildArangesSet(t *testing.T, infoOffset uint32, low, length uint64) []byte {
	t.Helper()
	var body bytes.Buffer
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(2))) // version
	require.NoError(t, binary.Write(&body, binary.LittleEndian, infoOffset))
	body.WriteByte(8) // address_size
	body.WriteByte(0) // segment_selector_size

	// Padding is measured from the start of the set, unit_length included:
	// headerLen = 4+2+4+1+1 = 12; pad to 16.
	pad := 16 - ((4 + body.Len()) % 16)
	if pad == 16 {
		pad = 0
	}
	body.Write(make([]byte, pad))

	require.NoError(t, binary.Write(&body, binary.LittleEndian, low))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, length))
	// terminator tuple
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint64(0)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint64(0)))

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(body.Len())))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestParseAranges_SingleTuple(t *testing.T) {
	data := buildArangesSet(t, 0x40, 0x1000, 0x200)

	got, err := ParseAranges(data, binary.LittleEndian)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, uint64(0x40), got[0].CUOffset)
	require.Equal(t, uint64(0x1000), got[0].LowPC)
	require.Equal(t, uint64(0x1200), got[0].HighPC)
}

func TestParseAranges_Covering(t *testing.T) {
	data := buildArangesSet(t, 0x40, 0x1000, 0x200)
	list, err := ParseAranges(data, binary.LittleEndian)
	require.NoError(t, err)

	a, ok := list.Covering(0x1050)
	require.True(t, ok)
	require.Equal(t, uint64(0x40), a.CUOffset)

	_, ok = list.Covering(0x2000)
	require.False(t, ok)
}

func TestParseAranges_MultipleSets(t *testing.T) {
	a := buildArangesSet(t, 0x0, 0x1000, 0x100)
	b := buildArangesSet(t, 0x200, 0x5000, 0x50)
	data := append(append([]byte{}, a...), b...)

	list, err := ParseAranges(data, binary.LittleEndian)
	require.NoError(t, err)
	require.Len(t, list, 2)

	first, ok := list.Covering(0x1050)
	require.True(t, ok)
	require.Equal(t, uint64(0x0), first.CUOffset)

	second, ok := list.Covering(0x5010)
	require.True(t, ok)
	require.Equal(t, uint64(0x200), second.CUOffset)
}

func TestParseAranges_RejectsSegmented(t *testing.T) {
	var body bytes.Buffer
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint16(2)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, uint32(0)))
	body.WriteByte(8)
	body.WriteByte(1) // non-zero segment_selector_size

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.LittleEndian, uint32(body.Len())))
	out.Write(body.Bytes())

	_, err := ParseAranges(out.Bytes(), binary.LittleEndian)
	require.Error(t, err)
}
