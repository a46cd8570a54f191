package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		buf := WriteBool(nil, v)
		got, err := ReadBool(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestBoolCanonicalFalseIsZero(t *testing.T) {
	require.Equal(t, []byte{0x00}, WriteBool(nil, false))
	require.Equal(t, []byte{0x01}, WriteBool(nil, true))
}

func TestBoolNonCanonicalByteIsFalse(t *testing.T) {
	// Per spec: 0x01 => true, anything else (including garbage) => false.
	got, err := ReadBool(bytes.NewReader([]byte{0x42}))
	require.NoError(t, err)
	require.False(t, got)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "localhost", "utf8: héllo wörld"} {
		buf := WriteString(nil, s)
		got, err := ReadString(bytes.NewReader(buf))
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestStringLargeRoundTrip(t *testing.T) {
	s := string(bytes.Repeat([]byte("x"), 1<<16))
	buf := WriteString(nil, s)
	got, err := ReadString(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestStringTruncatedIsMalformed(t *testing.T) {
	buf := WriteString(nil, "hello")
	_, err := ReadString(bytes.NewReader(buf[:len(buf)-2]))
	require.ErrorIs(t, err, ErrMalformedString)
}

func TestUUIDRoundTrip(t *testing.T) {
	u := UUID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	buf := WriteUUID(nil, u)
	require.Len(t, buf, 16)
	got, err := ReadUUID(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestByteTailConsumesRemainder(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03}
	got, err := ReadByteTail(bytes.NewReader(buf))
	require.NoError(t, err)
	require.Equal(t, buf, got)
}

func TestFixedWidthRoundTrip(t *testing.T) {
	buf := WriteU16(nil, 25565)
	buf = WriteI32(buf, -12345)
	buf = WriteU64(buf, 1<<40)
	buf = WriteF32(buf, 3.5)
	buf = WriteF64(buf, -2.25)

	r := bytes.NewReader(buf)
	u16, err := ReadU16(r)
	require.NoError(t, err)
	require.EqualValues(t, 25565, u16)

	i32, err := ReadI32(r)
	require.NoError(t, err)
	require.EqualValues(t, -12345, i32)

	u64, err := ReadU64(r)
	require.NoError(t, err)
	require.EqualValues(t, 1<<40, u64)

	f32, err := ReadF32(r)
	require.NoError(t, err)
	require.EqualValues(t, 3.5, f32)

	f64, err := ReadF64(r)
	require.NoError(t, err)
	require.EqualValues(t, -2.25, f64)
}
