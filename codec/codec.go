// Package codec implements the schema-driven, non-self-describing wire
// codec for packet bodies. There is no reflection-based field walker here:
// each packet type's Encode/Decode method calls Reader/Writer methods in an
// explicit, statically-typed sequence — the method-call sequence *is* the
// schema (see DESIGN.md, "codec — component C").
package codec

import (
	"bytes"
	"errors"
	"io"

	"mcgate/varint"
	"mcgate/wire"
)

// Decode errors. AnyType, MapType and CharType are programmer errors: a
// packet schema asked for a wire construct this format doesn't have, and
// should never be reachable from real packet definitions in this repo.
var (
	ErrMalformedVarInt  = varint.ErrMalformed
	ErrMalformedString  = wire.ErrMalformedString
	ErrMalformedBool    = wire.ErrMalformedBool
	ErrShortRead        = wire.ErrShortRead
	ErrUnknownVariant   = errors.New("codec: union discriminator out of range")
	ErrAnyType          = errors.New("codec: 'any' types do not exist in this format")
	ErrMapType          = errors.New("codec: map types do not exist in this format")
	ErrCharType         = errors.New("codec: char types do not exist in this format")
	ErrUnsizedSeq       = errors.New("codec: attempted to serialize a sequence with no known length")
	ErrNegativeSeqLen   = errors.New("codec: sequence length VarInt was negative")
)

// Reader decodes a packet body from a fixed byte slice. It is positioned at
// the start of a frame's body by the caller (see package frame); reading
// past the end of the body is always an error, never silently zero-filled.
type Reader struct {
	r *bytes.Reader
}

// NewReader wraps body for sequential decoding.
func NewReader(body []byte) *Reader {
	return &Reader{r: bytes.NewReader(body)}
}

// Len reports how many bytes remain unread.
func (r *Reader) Len() int { return r.r.Len() }

func (r *Reader) VarInt() (int32, error) {
	v, _, err := varint.ReadInt(r.r)
	return v, err
}

func (r *Reader) VarLong() (int64, error) {
	v, _, err := varint.ReadLong(r.r)
	return v, err
}

func (r *Reader) Bool() (bool, error)       { return wire.ReadBool(r.r) }
func (r *Reader) String() (string, error)   { return wire.ReadString(r.r) }
func (r *Reader) UUID() (wire.UUID, error)  { return wire.ReadUUID(r.r) }
func (r *Reader) I8() (int8, error)         { return wire.ReadI8(r.r) }
func (r *Reader) U8() (uint8, error)        { return wire.ReadU8(r.r) }
func (r *Reader) I16() (int16, error)       { return wire.ReadI16(r.r) }
func (r *Reader) U16() (uint16, error)      { return wire.ReadU16(r.r) }
func (r *Reader) I32() (int32, error)       { return wire.ReadI32(r.r) }
func (r *Reader) U32() (uint32, error)      { return wire.ReadU32(r.r) }
func (r *Reader) I64() (int64, error)       { return wire.ReadI64(r.r) }
func (r *Reader) U64() (uint64, error)      { return wire.ReadU64(r.r) }
func (r *Reader) F32() (float32, error)     { return wire.ReadF32(r.r) }
func (r *Reader) F64() (float64, error)     { return wire.ReadF64(r.r) }

// ByteTail consumes and returns every remaining byte in the frame body.
func (r *Reader) ByteTail() ([]byte, error) { return wire.ReadByteTail(r.r) }

// ByteVec reads a VarInt-length-prefixed raw byte slice (used for
// fields like shared_secret/verify_token/public_key that carry an explicit
// length rather than consuming to the frame's end).
func (r *Reader) ByteVec() ([]byte, error) {
	n, err := r.VarInt()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, ErrNegativeSeqLen
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, ErrShortRead
	}
	return buf, nil
}

// Optional reads the one-byte presence flag and, if present, invokes fn to
// decode the payload. ok reports whether a value was present.
func (r *Reader) Optional(fn func(r *Reader) error) (ok bool, err error) {
	present, err := r.Bool()
	if err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	if err := fn(r); err != nil {
		return false, err
	}
	return true, nil
}

// Seq reads a VarInt length L, then invokes fn exactly L times with the
// element index. It returns L.
func (r *Reader) Seq(fn func(r *Reader, i int) error) (int, error) {
	n, err := r.VarInt()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrNegativeSeqLen
	}
	for i := 0; i < int(n); i++ {
		if err := fn(r, i); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}

// UnionID reads the VarInt discriminator of a tagged union. Callers dispatch
// on the returned id and then read that variant's own fields from the same
// Reader; ErrUnknownVariant is the caller's to return if the id doesn't
// match any known variant.
func (r *Reader) UnionID() (int32, error) { return r.VarInt() }

// AnyType, MapType and CharType exist so a packet schema that (incorrectly)
// needs one of these unsupported constructs fails loudly with the right
// sentinel, rather than being silently miscompiled into some other read.
func (r *Reader) AnyType() error  { return ErrAnyType }
func (r *Reader) MapType() error  { return ErrMapType }
func (r *Reader) CharType() error { return ErrCharType }

// Writer encodes a packet body by appending to an internal byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated body.
func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) VarInt(v int32)   { w.buf = varint.WriteInt(w.buf, v) }
func (w *Writer) VarLong(v int64)  { w.buf = varint.WriteLong(w.buf, v) }
func (w *Writer) Bool(v bool)      { w.buf = wire.WriteBool(w.buf, v) }
func (w *Writer) String(s string)  { w.buf = wire.WriteString(w.buf, s) }
func (w *Writer) UUID(u wire.UUID) { w.buf = wire.WriteUUID(w.buf, u) }
func (w *Writer) I8(v int8)        { w.buf = wire.WriteI8(w.buf, v) }
func (w *Writer) U8(v uint8)       { w.buf = wire.WriteU8(w.buf, v) }
func (w *Writer) I16(v int16)      { w.buf = wire.WriteI16(w.buf, v) }
func (w *Writer) U16(v uint16)     { w.buf = wire.WriteU16(w.buf, v) }
func (w *Writer) I32(v int32)      { w.buf = wire.WriteI32(w.buf, v) }
func (w *Writer) U32(v uint32)     { w.buf = wire.WriteU32(w.buf, v) }
func (w *Writer) I64(v int64)      { w.buf = wire.WriteI64(w.buf, v) }
func (w *Writer) U64(v uint64)     { w.buf = wire.WriteU64(w.buf, v) }
func (w *Writer) F32(v float32)    { w.buf = wire.WriteF32(w.buf, v) }
func (w *Writer) F64(v float64)    { w.buf = wire.WriteF64(w.buf, v) }

// ByteTail appends raw bytes with no length prefix at all — the wire
// construct for payload-terminal blobs.
func (w *Writer) ByteTail(b []byte) { w.buf = append(w.buf, b...) }

// ByteVec appends a VarInt length prefix followed by the raw bytes.
func (w *Writer) ByteVec(b []byte) error {
	if b == nil {
		w.VarInt(0)
		return nil
	}
	w.VarInt(int32(len(b)))
	w.buf = append(w.buf, b...)
	return nil
}

// Optional writes the one-byte presence flag, then fn if present is true.
func (w *Writer) Optional(present bool, fn func(w *Writer)) {
	w.Bool(present)
	if present && fn != nil {
		fn(w)
	}
}

// Seq writes the VarInt length n, then invokes fn exactly n times. n must be
// the true, already-known length of the sequence (slices always know their
// length in Go, so this can never legitimately fail — a negative n is a
// caller bug, reported as ErrUnsizedSeq per the serializer contract).
func (w *Writer) Seq(n int, fn func(w *Writer, i int)) error {
	if n < 0 {
		return ErrUnsizedSeq
	}
	w.VarInt(int32(n))
	for i := 0; i < n; i++ {
		fn(w, i)
	}
	return nil
}

// UnionID writes the VarInt discriminator of a tagged union.
func (w *Writer) UnionID(id int32) { w.VarInt(id) }
