// Package compressx implements the optional, post-core zlib compression
// declared (but not required) by spec.md §6: once SetCompression has been
// sent with a non-negative threshold, frame bodies whose pre-compression
// length meets that threshold SHOULD be zlib-deflated. This is entirely
// separate from — and layered on top of — the core frame/codec pipeline,
// which always operates on uncompressed bodies; callers opt in per
// connection once a threshold has been negotiated.
package compressx

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zlib"
	"mcgate/varint"
)

// ErrNotCompressed is returned by Decompress when the declared
// uncompressed-length prefix is zero, meaning the body that follows was
// sent unmodified (below threshold) rather than deflated.
var ErrNotCompressed = errors.New("compressx: body was sent uncompressed")

// Compress deflates body and prepends a VarInt holding its uncompressed
// length, the wire shape the core's SetCompression scheme calls for. If
// len(body) is below threshold, the body is returned unmodified with a
// leading zero VarInt, signaling "not compressed" to the reader.
func Compress(body []byte, threshold int) ([]byte, error) {
	if threshold < 0 || len(body) < threshold || len(body) == 0 {
		out := varint.WriteInt(nil, 0)
		return append(out, body...), nil
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	out := varint.WriteInt(nil, int32(len(body)))
	return append(out, buf.Bytes()...), nil
}

// Decompress reads the leading VarInt uncompressed-length prefix from
// payload and, if nonzero, inflates the remainder. A zero-length prefix
// means the payload was sent uncompressed (see ErrNotCompressed); callers
// that only care about the data, not whether it arrived compressed, can
// ignore that error and use the remainder of payload as the raw body.
func Decompress(payload []byte) ([]byte, error) {
	n, size, status := varint.TryReadInt(payload)
	if status != varint.StatusOK {
		return nil, varint.ErrMalformed
	}
	rest := payload[size:]
	if n == 0 {
		return rest, ErrNotCompressed
	}

	r, err := zlib.NewReader(bytes.NewReader(rest))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	out := make([]byte, 0, n)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
