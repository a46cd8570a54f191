package varint

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// knownVectors are the canonical wire.vg.dev VarInt sample encodings used
// across every Minecraft protocol implementation in the wild.
var knownVectors = []struct {
	value   int32
	encoded []byte
}{
	{0, []byte{0x00}},
	{1, []byte{0x01}},
	{2, []byte{0x02}},
	{127, []byte{0x7f}},
	{128, []byte{0x80, 0x01}},
	{255, []byte{0xff, 0x01}},
	{2147483647, []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
	{-1, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	{-2147483648, []byte{0x80, 0x80, 0x80, 0x80, 0x08}},
}

func TestWriteIntKnownVectors(t *testing.T) {
	for _, v := range knownVectors {
		got := WriteInt(nil, v.value)
		require.Equal(t, v.encoded, got, "value %d", v.value)
	}
}

func TestReadIntKnownVectors(t *testing.T) {
	for _, v := range knownVectors {
		r := bytes.NewReader(v.encoded)
		got, n, err := ReadInt(r)
		require.NoError(t, err)
		require.Equal(t, v.value, got)
		require.Equal(t, len(v.encoded), n)
		require.Equal(t, 0, r.Len(), "should consume exactly the encoded bytes")
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, 128, 300, -300, 1 << 20, -(1 << 20), 2147483647, -2147483648}
	for _, v := range values {
		buf := WriteInt(nil, v)
		require.Equal(t, SizeInt(v), len(buf))
		got, n, err := ReadInt(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(buf), n)
	}
}

func TestVarLongRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 127, 128, 1 << 40, -(1 << 40), 9223372036854775807, -9223372036854775808}
	for _, v := range values {
		buf := WriteLong(nil, v)
		require.Equal(t, SizeLong(v), len(buf))
		got, n, err := ReadLong(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
		require.Equal(t, len(buf), n)
	}
}

func TestReadIntMalformedNoTerminator(t *testing.T) {
	// Five bytes, all with the continuation bit set: no terminator within
	// the 5-byte VarInt ceiling.
	bad := []byte{0xff, 0xff, 0xff, 0xff, 0xff}
	_, _, err := ReadInt(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadIntMalformedTruncatedInput(t *testing.T) {
	// Continuation bit set, but the stream ends before a terminator byte.
	bad := []byte{0x80}
	_, _, err := ReadInt(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestReadLongMalformedNoTerminator(t *testing.T) {
	bad := bytes.Repeat([]byte{0xff}, 10)
	_, _, err := ReadLong(bytes.NewReader(bad))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestWriteIntNoTrailingBytes(t *testing.T) {
	buf := WriteInt([]byte("prefix:"), 300)
	require.True(t, bytes.HasPrefix(buf, []byte("prefix:")))
	rest := buf[len("prefix:"):]
	got, n, err := ReadInt(bytes.NewReader(rest))
	require.NoError(t, err)
	require.Equal(t, int32(300), got)
	require.Equal(t, len(rest), n)
}
