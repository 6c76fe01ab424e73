package format

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixRangePredicates(t *testing.T) {
	require.True(t, IsPosFixInt(0x00))
	require.True(t, IsPosFixInt(0x7f))
	require.False(t, IsPosFixInt(0x80))

	require.True(t, IsNegFixInt(0xe0))
	require.True(t, IsNegFixInt(0xff))
	require.False(t, IsNegFixInt(0xdf))

	require.True(t, IsFixMap(0x80))
	require.True(t, IsFixMap(0x8f))
	require.False(t, IsFixMap(0x90))

	require.True(t, IsFixArray(0x90))
	require.True(t, IsFixArray(0x9f))
	require.False(t, IsFixArray(0xa0))

	require.True(t, IsFixStr(0xa0))
	require.True(t, IsFixStr(0xbf))
	require.False(t, IsFixStr(0xc0))
}

func TestFixLen(t *testing.T) {
	require.Equal(t, 0, FixLen(FixMapPrefix))
	require.Equal(t, 15, FixLen(FixMapPrefix|0x0f))
	require.Equal(t, 7, FixLen(FixArrayPrefix|0x07))

	require.Equal(t, 0, FixStrLen(FixStrPrefix))
	require.Equal(t, 31, FixStrLen(FixStrPrefix|0x1f))
}

func TestRangesArePartition(t *testing.T) {
	// Every byte value is exactly one of: posfixint, fixmap, fixarray,
	// fixstr, a fixed tag in [0xc0, 0xdf], or negfixint.
	for b := 0; b < 256; b++ {
		c := byte(b)
		n := 0
		if IsPosFixInt(c) {
			n++
		}
		if IsFixMap(c) {
			n++
		}
		if IsFixArray(c) {
			n++
		}
		if IsFixStr(c) {
			n++
		}
		if c >= 0xc0 && c <= 0xdf {
			n++
		}
		if IsNegFixInt(c) {
			n++
		}
		require.Equal(t, 1, n, "byte %#02x", c)
	}
}

func TestCompressionTypeString(t *testing.T) {
	require.Equal(t, "None", CompressionNone.String())
	require.Equal(t, "Zstd", CompressionZstd.String())
	require.Equal(t, "S2", CompressionS2.String())
	require.Equal(t, "LZ4", CompressionLZ4.String())
	require.Equal(t, "Unknown", CompressionType(0x7f).String())
}
