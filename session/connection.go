// Package session implements the four-phase connection state machine:
// Handshake, Status, Login (with its RSA/AES encryption handshake), and
// Play. It owns exactly one TCP connection for its whole lifetime,
// decoding frames inline during Handshake/Login and forwarding everything
// from Status/Play onward to a bounded inbound queue for the consumer.
package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"mcgate/frame"
	"mcgate/packet"
)

// Sentinel errors for handshake/login protocol violations. Framing errors
// and socket errors are returned as-is from the frame/net packages.
var (
	ErrUnexpectedFirstPacket = errors.New("session: first packet was not a handshake")
	ErrInvalidNextState      = errors.New("session: handshake next_state must be 1 (status) or 2 (login)")
	ErrVerifyTokenMismatch   = errors.New("session: decrypted verify token does not match")
	ErrUnexpectedLoginPacket = errors.New("session: expected packet not received during login")
)

// Frame is one decoded wire frame tagged with the phase it was read in,
// delivered to the consumer through Connection.Inbound(). Tagging by
// framing-time phase (rather than current phase) is what lets fan-out
// remain correct across a phase transition race (spec §5).
type Frame struct {
	Phase Phase
	Frame *frame.PacketFrame
}

// Phase re-exports packet.Phase so callers of this package don't need to
// import packet just to switch on it.
type Phase = packet.Phase

const (
	PhaseHandshake = packet.PhaseHandshake
	PhaseStatus    = packet.PhaseStatus
	PhaseLogin     = packet.PhaseLogin
	PhasePlay      = packet.PhasePlay
)

// Identity is what Login records about the connecting client before
// Play begins.
type Identity struct {
	Name string
	UUID *[16]byte
}

// Config bounds a Connection's behavior; all fields have sane zero-value
// fallbacks applied by New.
type Config struct {
	MaxFrameBytes     int
	InboundQueueDepth int
	HandshakeDeadline time.Duration
	// EnableCompression, when true and the client completes Login, causes
	// a SetCompression packet to be sent. Compression bytes themselves are
	// never deflated here (see compressx) — spec.md declares that beyond
	// the core — this only exercises the handshake packet.
	EnableCompression    bool
	CompressionThreshold int32
}

func (c Config) withDefaults() Config {
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = frame.DefaultMaxFrameBytes
	}
	if c.InboundQueueDepth <= 0 {
		c.InboundQueueDepth = 64
	}
	if c.HandshakeDeadline <= 0 {
		c.HandshakeDeadline = 30 * time.Second
	}
	return c
}

// Connection drives one client's handshake/status/login/play lifecycle.
type Connection struct {
	conn   net.Conn
	cfg    Config
	rsaKey *rsa.PrivateKey
	log    *slog.Logger

	framer *frame.Framer
	r      io.Reader
	w      io.Writer

	phase    Phase
	identity Identity

	inbound chan Frame
}

// New wraps conn in a Connection. rsaKey is the gateway's long-lived RSA
// keypair, generated once at listener start and shared read-only across
// every connection (spec.md §5, "shared resources").
func New(conn net.Conn, rsaKey *rsa.PrivateKey, cfg Config, log *slog.Logger) *Connection {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Connection{
		conn:    conn,
		cfg:     cfg,
		rsaKey:  rsaKey,
		log:     log,
		framer:  frame.NewFramer(cfg.MaxFrameBytes),
		r:       conn,
		w:       conn,
		phase:   PhaseHandshake,
		inbound: make(chan Frame, cfg.InboundQueueDepth),
	}
}

// Inbound is the receive end of this connection's bounded frame queue.
// Handshake and Login frames are never delivered here; the first value
// received is the first post-handshake Status frame or the first Play
// frame, per spec §5.
func (c *Connection) Inbound() <-chan Frame { return c.inbound }

// Phase reports the connection's current phase.
func (c *Connection) Phase() Phase { return c.phase }

// Identity reports what Login recorded, valid once phase has reached Play.
func (c *Connection) Identity() Identity { return c.identity }

// Close closes the underlying socket.
func (c *Connection) Close() error { return c.conn.Close() }

// Run drives the connection until it terminates (disconnect, protocol
// violation, or ctx cancellation), closing the inbound channel on return.
// The caller is expected to run Run in its own goroutine — one task per
// live connection, per spec §4.G.
func (c *Connection) Run(ctx context.Context) error {
	defer close(c.inbound)

	if c.cfg.HandshakeDeadline > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.HandshakeDeadline))
	}

	if err := c.runHandshake(); err != nil {
		c.log.Debug("handshake failed", "remote", c.conn.RemoteAddr(), "err", err)
		return err
	}

	switch c.phase {
	case PhaseStatus:
		_ = c.conn.SetReadDeadline(time.Time{})
		err := c.forwardLoop(ctx, PhaseStatus)
		return err
	case PhaseLogin:
		if err := c.runLogin(); err != nil {
			c.log.Debug("login failed", "remote", c.conn.RemoteAddr(), "err", err)
			return err
		}
		_ = c.conn.SetReadDeadline(time.Time{})
		return c.forwardLoop(ctx, PhasePlay)
	default:
		return ErrInvalidNextState
	}
}

func (c *Connection) readFrame() (*frame.PacketFrame, error) {
	pf, err := c.framer.ReadPacket(c.r)
	if err != nil {
		return nil, err
	}
	if pf == nil {
		return nil, io.EOF
	}
	return pf, nil
}

func (c *Connection) runHandshake() error {
	pf, err := c.readFrame()
	if err != nil {
		return err
	}
	var hs packet.Handshake
	if err := packet.DecodeKnown(pf.Body, &hs); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpectedFirstPacket, err)
	}
	switch hs.NextState {
	case packet.NextStateStatus:
		c.phase = PhaseStatus
	case packet.NextStateLogin:
		c.phase = PhaseLogin
	default:
		return ErrInvalidNextState
	}
	return nil
}

func (c *Connection) runLogin() error {
	pf, err := c.readFrame()
	if err != nil {
		return err
	}
	var start packet.LoginStart
	if err := packet.DecodeKnown(pf.Body, &start); err != nil {
		return fmt.Errorf("%w: login_start: %v", ErrUnexpectedLoginPacket, err)
	}
	c.identity.Name = start.Name
	if start.PlayerUUID != nil {
		u := [16]byte(*start.PlayerUUID)
		c.identity.UUID = &u
	}

	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return err
	}
	pubDER := x509.MarshalPKCS1PublicKey(&c.rsaKey.PublicKey)
	req := &packet.EncryptionRequest{ServerID: "", PublicKey: pubDER, VerifyToken: token}
	if err := c.writePacket(req); err != nil {
		return err
	}

	pf, err = c.readFrame()
	if err != nil {
		return err
	}
	var resp packet.EncryptionResponse
	if err := packet.DecodeKnown(pf.Body, &resp); err != nil {
		return fmt.Errorf("%w: encryption_response: %v", ErrUnexpectedLoginPacket, err)
	}

	decryptedToken, err := rsa.DecryptPKCS1v15(rand.Reader, c.rsaKey, resp.VerifyToken)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(decryptedToken, token) != 1 {
		return ErrVerifyTokenMismatch
	}

	sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, c.rsaKey, resp.SharedSecret)
	if err != nil {
		return err
	}

	if err := c.enableEncryption(sharedSecret); err != nil {
		return err
	}

	if c.cfg.EnableCompression {
		if err := c.writePacket(&packet.SetCompression{Threshold: c.cfg.CompressionThreshold}); err != nil {
			return err
		}
	}

	success := &packet.LoginSuccess{
		Username:   c.identity.Name,
		Properties: packet.LoginProperty{Variant: packet.PropertyNone},
	}
	if c.identity.UUID != nil {
		success.UUID = *c.identity.UUID
	}
	if err := c.writePacket(success); err != nil {
		return err
	}

	c.phase = PhasePlay
	return nil
}

// enableEncryption wraps the connection's reader and writer in AES/CFB8
// streams keyed and IV'd by sharedSecret, per spec.md §4.F step 4.
func (c *Connection) enableEncryption(sharedSecret []byte) error {
	encBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return err
	}
	decBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return err
	}
	c.w = &cipher.StreamWriter{S: NewCFB8Encrypter(encBlock, sharedSecret), W: c.conn}
	c.r = &cipher.StreamReader{S: NewCFB8Decrypter(decBlock, sharedSecret), R: c.conn}
	return nil
}

func (c *Connection) writePacket(p packet.Packet) error {
	pf := packet.Encode(p)
	_, err := c.w.Write(pf.Encode())
	return err
}

// WriteFrame writes a raw, already-encoded Play-phase frame to the client.
// It is the gateway-side half of the Status/Play forwarding contract: a
// router sitting downstream of Inbound() uses this to deliver frames that
// originated elsewhere (e.g. a simulation shard) without this package ever
// decoding their bodies.
func (c *Connection) WriteFrame(pf *frame.PacketFrame) error {
	_, err := c.w.Write(pf.Encode())
	return err
}

// forwardLoop reads frames until EOF or error, tagging each with taggedPhase
// and sending it to the inbound queue. A blocking channel send is exactly
// the backpressure mechanism spec §4.G/§5 calls for: when the consumer
// falls behind, this loop stops reading from the socket.
func (c *Connection) forwardLoop(ctx context.Context, taggedPhase Phase) error {
	for {
		pf, err := c.readFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		select {
		case c.inbound <- Frame{Phase: taggedPhase, Frame: pf}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

