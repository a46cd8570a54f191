// Package wire implements the fixed-width, big-endian byte-stream
// primitives that sit underneath the codec: booleans, strings, UUIDs,
// presence bytes, and byte tails. VarInt/VarLong live in package varint;
// this package composes them for the string length prefix.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"mcgate/varint"
)

// ErrMalformedBool is returned when a presence/bool byte can't be read.
var ErrMalformedBool = errors.New("wire: malformed bool")

// ErrMalformedString is returned when a string's declared length can't be
// satisfied by the remaining input.
var ErrMalformedString = errors.New("wire: malformed string")

// ErrShortRead is returned by any fixed-width read that runs out of bytes.
var ErrShortRead = errors.New("wire: short read")

// byteReader is what ReadString needs in addition to io.Reader; satisfied
// by bytes.Reader.
type byteReader interface {
	io.Reader
	io.ByteReader
}

// ReadBool reads the canonical one-byte boolean: 0x01 is true, anything
// else (canonically 0x00) is false.
func ReadBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, ErrMalformedBool
	}
	return b[0] == 0x01, nil
}

// WriteBool appends the canonical one-byte boolean encoding.
func WriteBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 0x01)
	}
	return append(buf, 0x00)
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func ReadString(r byteReader) (string, error) {
	n, _, err := varint.ReadInt(r)
	if err != nil || n < 0 {
		return "", ErrMalformedString
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrMalformedString
	}
	return string(buf), nil
}

// WriteString appends a VarInt-length-prefixed UTF-8 string.
func WriteString(buf []byte, s string) []byte {
	buf = varint.WriteInt(buf, int32(len(s)))
	return append(buf, s...)
}

// ReadByteTail consumes and returns every remaining byte from r. Used for
// payload-terminal blobs whose length is implied by the enclosing frame
// rather than self-declared.
func ReadByteTail(r io.Reader) ([]byte, error) {
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrShortRead
	}
	return rest, nil
}

// UUID is a 128-bit value encoded as 16 raw big-endian bytes.
type UUID [16]byte

// ReadUUID reads a raw 16-byte UUID.
func ReadUUID(r io.Reader) (UUID, error) {
	var u UUID
	if _, err := io.ReadFull(r, u[:]); err != nil {
		return UUID{}, ErrShortRead
	}
	return u, nil
}

// WriteUUID appends the raw 16-byte UUID encoding.
func WriteUUID(buf []byte, u UUID) []byte {
	return append(buf, u[:]...)
}

// Fixed-width big-endian integers and floats. Each pair mirrors
// encoding/binary.BigEndian, wrapped so codec callers get the same
// ErrShortRead on truncated input that every other primitive in this
// package returns.

func ReadU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

func WriteU16(buf []byte, v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return append(buf, b[:]...)
}

func ReadI16(r io.Reader) (int16, error) {
	v, err := ReadU16(r)
	return int16(v), err
}

func WriteI16(buf []byte, v int16) []byte {
	return WriteU16(buf, uint16(v))
}

func ReadU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func WriteU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func ReadI32(r io.Reader) (int32, error) {
	v, err := ReadU32(r)
	return int32(v), err
}

func WriteI32(buf []byte, v int32) []byte {
	return WriteU32(buf, uint32(v))
}

func ReadU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func WriteU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func ReadI64(r io.Reader) (int64, error) {
	v, err := ReadU64(r)
	return int64(v), err
}

func WriteI64(buf []byte, v int64) []byte {
	return WriteU64(buf, uint64(v))
}

func ReadI8(r io.Reader) (int8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return int8(b[0]), nil
}

func WriteI8(buf []byte, v int8) []byte {
	return append(buf, byte(v))
}

func ReadU8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, ErrShortRead
	}
	return b[0], nil
}

func WriteU8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func ReadF32(r io.Reader) (float32, error) {
	v, err := ReadU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func WriteF32(buf []byte, v float32) []byte {
	return WriteU32(buf, math.Float32bits(v))
}

func ReadF64(r io.Reader) (float64, error) {
	v, err := ReadU64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func WriteF64(buf []byte, v float64) []byte {
	return WriteU64(buf, math.Float64bits(v))
}
