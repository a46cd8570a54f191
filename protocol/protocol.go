// Package protocol implements the fixed-header framing used on the
// internal gateway↔shard link: a 14-byte header followed by a
// variable-length body. The receiver reads the header first to determine
// the body length, then reads exactly that many bytes — the same
// sticky-packet fix the edge-facing wire protocol solves with a VarInt
// length prefix (see package frame), applied here to the envelopes
// package message defines.
//
// Frame format:
//
//	0      3  4  5  6         10        14
//	┌──────┬──┬──┬──┬─────────┬─────────┬───────────────┐
//	│magic │v │rs│kd│   seq   │ bodyLen │    body ...    │
//	│ mcs  │01│  │  │ uint32  │ uint32  │ bodyLen bytes  │
//	└──────┴──┴──┴──┴─────────┴─────────┴───────────────┘
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"mcgate/message"
)

// Magic number bytes: "mcs" (mcgate shard link).
// Used to quickly reject anything that isn't a gateway↔shard frame hitting
// this port by accident.
const (
	MagicNumber byte = 0x6d // 'm'
	MagicByte2  byte = 0x63 // 'c'
	MagicByte3  byte = 0x73 // 's'
	Version     byte = 0x01
	HeaderSize  int  = 14 // 3 (magic) + 1 (version) + 1 (reserved) + 1 (kind) + 4 (seq) + 4 (bodyLen)
)

// Header is the fixed 14-byte frame header.
type Header struct {
	Kind    message.EnvelopeKind // Connect, Frame, or Disconnect
	Seq     uint32               // Monotonically increasing per-transport counter, for log correlation only
	BodyLen uint32               // Body length in bytes — solves TCP sticky packet problem
}

// Encode writes a complete frame (header + body) to w.
// The caller must hold a write lock if multiple goroutines share w,
// otherwise frames from different sends will interleave and corrupt the
// stream.
func Encode(w io.Writer, h *Header, body []byte) error {
	buf := make([]byte, HeaderSize)

	// Magic number: 3 bytes
	copy(buf[0:3], []byte{MagicNumber, MagicByte2, MagicByte3})
	// Version: 1 byte
	buf[3] = Version
	// Reserved: 1 byte, always zero on the wire
	buf[4] = 0
	// Envelope kind: 1 byte
	buf[5] = byte(h.Kind)
	// Sequence number: 4 bytes, big-endian
	binary.BigEndian.PutUint32(buf[6:10], h.Seq)
	// Body length: 4 bytes, big-endian
	binary.BigEndian.PutUint32(buf[10:14], h.BodyLen)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	return nil
}

// Decode reads a complete frame (header + body) from r.
// It validates the magic number, version, and envelope kind, using
// io.ReadFull throughout so a short read never silently yields a
// truncated body.
func Decode(r io.Reader) (*Header, []byte, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, nil, err
	}

	if headerBuf[0] != MagicNumber || headerBuf[1] != MagicByte2 || headerBuf[2] != MagicByte3 {
		return nil, nil, fmt.Errorf("protocol: invalid magic number: %x", headerBuf[0:3])
	}
	if headerBuf[3] != Version {
		return nil, nil, fmt.Errorf("protocol: unsupported version: %d", headerBuf[3])
	}

	kind := message.EnvelopeKind(headerBuf[5])
	switch kind {
	case message.EnvelopeConnect, message.EnvelopeFrame, message.EnvelopeDisconnect:
	default:
		return nil, nil, fmt.Errorf("protocol: unsupported envelope kind: %d", headerBuf[5])
	}

	seq := binary.BigEndian.Uint32(headerBuf[6:10])
	bodyLen := binary.BigEndian.Uint32(headerBuf[10:14])

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	return &Header{Kind: kind, Seq: seq, BodyLen: bodyLen}, body, nil
}
