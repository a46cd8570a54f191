// Package frame implements partial-read-safe extraction of complete
// packets from a growing byte buffer fed by a TCP stream: component E of
// the protocol (length-prefixed, VarInt-framed packets, resumable across
// however the underlying reads happen to be chunked).
//
// The Framer is a pure function over (reader, buffer): it never interprets
// packet bodies, only finds their boundaries.
package frame

import (
	"errors"
	"io"

	"mcgate/varint"
)

// ErrMalformedLength is returned when the length prefix itself is not a
// valid VarInt (exceeds 5 bytes without a terminator).
var ErrMalformedLength = errors.New("frame: malformed varint length prefix")

// ErrFrameTooLarge is returned when a frame's declared length exceeds the
// Framer's configured maximum.
var ErrFrameTooLarge = errors.New("frame: declared length exceeds maximum")

// ErrTruncated is returned when the stream ends in the middle of a length
// prefix or a body — as opposed to a clean EOF between frames.
var ErrTruncated = errors.New("frame: stream ended mid-frame")

// DefaultMaxFrameBytes bounds a frame's body when the Framer is constructed
// with maxFrameBytes <= 0. The Java-edition wire protocol caps packets at
// 2^21-1 bytes (the largest value a 3-byte VarInt can hold); this is a
// generous but finite default so an unconfigured Framer is never unbounded.
const DefaultMaxFrameBytes = 2*1024*1024 - 1

// PacketFrame is one complete on-the-wire packet: the length prefix plus
// exactly Length bytes of body. Body[0:] begins with the packet id VarInt
// followed by the packet-specific payload; the codec re-reads the id from
// Body rather than trusting any id cached here, so a PacketFrame can be
// hand-built (e.g. by a writer) with only Body set.
type PacketFrame struct {
	// Length is the decoded value of the wire length prefix; equal to
	// len(Body) for frames read by a Framer, and zero for frames built
	// with only Body set.
	Length int32
	// LengthSize is the number of bytes the length prefix occupied on
	// the wire. Per spec.md's open question (a), this is only
	// meaningful for frames that actually came off the wire — a
	// frame built programmatically for writing should not have callers
	// depend on this field.
	LengthSize int
	// Body is the packet body: packet id VarInt followed by payload.
	Body []byte
}

// Encode returns the full wire representation (length prefix + body) of f,
// recomputing the length prefix from len(f.Body) rather than trusting
// f.LengthSize.
func (f *PacketFrame) Encode() []byte {
	out := varint.WriteInt(nil, int32(len(f.Body)))
	return append(out, f.Body...)
}

// Framer extracts complete PacketFrames from a byte stream, buffering
// partial reads across calls. It is not safe for concurrent use by more
// than one goroutine against the same underlying connection.
type Framer struct {
	buf           []byte
	maxFrameBytes int
}

// NewFramer creates a Framer that rejects frames whose declared length
// exceeds maxFrameBytes. A maxFrameBytes <= 0 selects DefaultMaxFrameBytes.
func NewFramer(maxFrameBytes int) *Framer {
	if maxFrameBytes <= 0 {
		maxFrameBytes = DefaultMaxFrameBytes
	}
	return &Framer{maxFrameBytes: maxFrameBytes}
}

// readChunkSize is how much we ask the socket for on each underlying Read;
// io.Reader implementations are free to return less.
const readChunkSize = 4096

// ReadPacket returns the next complete frame from r, reading further from r
// as needed to accumulate one. It returns (nil, nil) on an orderly EOF
// between frames (no bytes buffered at all), and an error if the stream
// ends mid-frame, the length prefix is malformed, or the declared length
// exceeds the configured maximum.
func (fr *Framer) ReadPacket(r io.Reader) (*PacketFrame, error) {
	for {
		value, size, status := varint.TryReadInt(fr.buf)
		switch status {
		case varint.StatusMalformed:
			return nil, ErrMalformedLength
		case varint.StatusUnderrun:
			if err := fr.fill(r); err != nil {
				if err == io.EOF {
					if len(fr.buf) == 0 {
						return nil, nil
					}
					return nil, ErrTruncated
				}
				return nil, err
			}
			continue
		}

		// status == StatusOK: we have a complete length prefix.
		if value < 0 {
			return nil, ErrMalformedLength
		}
		if int(value) > fr.maxFrameBytes {
			return nil, ErrFrameTooLarge
		}
		if value == 0 {
			// Degenerate: never emitted as a frame. Drop the zero-length
			// prefix from the buffer and keep reading whatever follows it.
			fr.buf = fr.buf[size:]
			continue
		}

		total := size + int(value)
		if len(fr.buf) < total {
			if err := fr.fill(r); err != nil {
				if err == io.EOF {
					return nil, ErrTruncated
				}
				return nil, err
			}
			continue
		}

		body := make([]byte, value)
		copy(body, fr.buf[size:total])
		remainder := fr.buf[total:]
		rest := make([]byte, len(remainder))
		copy(rest, remainder)
		fr.buf = rest

		return &PacketFrame{Length: value, LengthSize: size, Body: body}, nil
	}
}

// fill performs one socket read, appending whatever arrives to buf. An n==0
// read paired with a nil error is treated as "try again" by the caller's
// next loop iteration, matching io.Reader's contract.
func (fr *Framer) fill(r io.Reader) error {
	chunk := make([]byte, readChunkSize)
	n, err := r.Read(chunk)
	if n > 0 {
		fr.buf = append(fr.buf, chunk[:n]...)
		// A reader is permitted to return n>0 alongside io.EOF; treat
		// the bytes as valid and defer EOF to the next Read, same as
		// io.ReadFull/io.Copy do.
		return nil
	}
	return err
}
