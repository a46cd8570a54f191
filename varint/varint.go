// Package varint implements the LEB128-style variable-length integer
// encoding used throughout the Minecraft network protocol: seven payload
// bits per byte, little-endian group order, continuation bit in each
// byte's MSB, two's-complement for negative values.
package varint

import "errors"

// continueBit marks that another byte follows in the group sequence.
const continueBit = 0x80

// payloadMask extracts the 7 data bits carried by a single group byte.
const payloadMask = 0x7f

// MaxVarIntLen is the maximum number of bytes a VarInt may occupy.
const MaxVarIntLen = 5

// MaxVarLongLen is the maximum number of bytes a VarLong may occupy.
const MaxVarLongLen = 10

// ErrMalformed is returned when a VarInt/VarLong exceeds its maximum byte
// count without a terminator, or the input runs out before one is found.
var ErrMalformed = errors.New("varint: malformed variable-length integer")

// byteReader is the minimal interface read needs from its source; both
// bytes.Reader and bufio.Reader satisfy it.
type byteReader interface {
	ReadByte() (byte, error)
}

// ReadInt reads a VarInt from r, returning the decoded value and the number
// of bytes consumed. It fails with ErrMalformed once 5 bytes have been
// consumed without encountering a terminator byte (high bit clear), or if r
// runs out of bytes first.
func ReadInt(r byteReader) (int32, int, error) {
	v, n, err := readGroups(r, MaxVarIntLen)
	if err != nil {
		return 0, 0, err
	}
	return int32(v), n, nil
}

// ReadLong reads a VarLong from r, identical to ReadInt but with a 10-byte
// ceiling and a 64-bit result.
func ReadLong(r byteReader) (int64, int, error) {
	v, n, err := readGroups(r, MaxVarLongLen)
	if err != nil {
		return 0, 0, err
	}
	return v, n, nil
}

// readGroups implements the shared LEB128 group-reading loop. The result is
// always computed as an unsigned 64-bit accumulation of 7-bit groups,
// low-order group first; callers narrow to the width they need via a plain
// integer conversion, which performs the required two's-complement
// truncation.
func readGroups(r byteReader, maxLen int) (int64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxLen; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, ErrMalformed
		}
		result |= uint64(b&payloadMask) << shift
		if b&continueBit == 0 {
			return int64(result), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrMalformed
}

// WriteInt appends the minimal-length encoding of v to buf and returns the
// extended slice.
func WriteInt(buf []byte, v int32) []byte {
	return writeGroups(buf, uint64(uint32(v)))
}

// WriteLong appends the minimal-length encoding of v to buf and returns the
// extended slice.
func WriteLong(buf []byte, v int64) []byte {
	return writeGroups(buf, uint64(v))
}

func writeGroups(buf []byte, u uint64) []byte {
	for {
		b := byte(u & payloadMask)
		u >>= 7
		if u != 0 {
			buf = append(buf, b|continueBit)
			continue
		}
		buf = append(buf, b)
		return buf
	}
}

// Status classifies the outcome of a partial, buffer-based VarInt scan (see
// TryReadInt): a length prefix sitting in a growing socket-read buffer can't
// yet distinguish "not enough bytes buffered" from "truly malformed" the way
// a blocking io.Reader read can, since there is no read to block on.
type Status int

const (
	// StatusOK: a complete, valid VarInt was decoded.
	StatusOK Status = iota
	// StatusUnderrun: buf was exhausted before a terminator byte appeared,
	// and fewer than MaxVarIntLen bytes were scanned — more input may
	// resolve this.
	StatusUnderrun
	// StatusMalformed: MaxVarIntLen bytes were scanned with no
	// terminator — no amount of further input fixes this.
	StatusMalformed
)

// TryReadInt scans a VarInt out of buf without consuming from any reader,
// classifying whether buf simply doesn't hold enough bytes yet (Underrun)
// or the encoding is unterminated even at the byte ceiling (Malformed).
// This is what the framer needs to distinguish "read more from the socket"
// from "this connection sent garbage", which a plain io.Reader-based read
// can't do once data has already been buffered.
func TryReadInt(buf []byte) (value int32, size int, status Status) {
	var result uint64
	var shift uint
	for i := 0; i < MaxVarIntLen; i++ {
		if i >= len(buf) {
			return 0, 0, StatusUnderrun
		}
		b := buf[i]
		result |= uint64(b&payloadMask) << shift
		if b&continueBit == 0 {
			return int32(result), i + 1, StatusOK
		}
		shift += 7
	}
	return 0, 0, StatusMalformed
}

// SizeInt returns the encoded length of v in bytes, without encoding it.
func SizeInt(v int32) int {
	return sizeGroups(uint64(uint32(v)))
}

// SizeLong returns the encoded length of v in bytes, without encoding it.
func SizeLong(v int64) int {
	return sizeGroups(uint64(v))
}

func sizeGroups(u uint64) int {
	n := 1
	for u >>= 7; u != 0; u >>= 7 {
		n++
	}
	return n
}
