package symbolicate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAddress_OffsetMode(t *testing.T) {
	got, err := SearchAddress(0x100001020, 0x100000000, 0x1000, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1020), got)
}

func TestSearchAddress_NonOffsetMode(t *testing.T) {
	got, err := SearchAddress(0x1020, 0x100000000, 0x1000, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1020), got, "non-offset mode returns addr unchanged")
}

func TestSearchAddress_Underflow(t *testing.T) {
	_, err := SearchAddress(0x100000000, 0x100000010, 0x1000, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressUnderflow))

	// Underflow fires regardless of offset mode.
	_, err = SearchAddress(0x100000000, 0x100000010, 0x1000, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressUnderflow))
}

func TestSearchAddress_Overflow(t *testing.T) {
	_, err := SearchAddress(^uint64(0), 0, ^uint64(0), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAddressOverflow))
}

func TestSearchAddress_EqualAddresses(t *testing.T) {
	got, err := SearchAddress(0x100000000, 0x100000000, 0x2000, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000), got)
}
