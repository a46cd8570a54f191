// Package transport implements the gateway-side transport for a single
// multiplexed connection to one simulation shard.
//
// ShardTransport lets many players' Play-phase frames share one TCP
// connection to a shard. Each player is identified by their UUID instead
// of mini-RPC's per-call sequence number — the multiplexing key changes
// from "one entry per in-flight call" to "one entry per connected player",
// but the shape is the same: a recvLoop goroutine demultiplexes inbound
// envelopes by key and routes them to a registered channel.
//
//	player-A ──Send(uuid=A)──┐
//	player-B ──Send(uuid=B)──┼──→ single TCP conn ──→ shard
//	player-C ──Send(uuid=C)──┘
//
//	recvLoop:  ←── envelope(uuid=B) → registered[B] chan ← envelope ← player-B's reader
package transport

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"mcgate/message"
	"mcgate/protocol"
	"mcgate/wire"
)

// ShardTransport manages a single multiplexed TCP connection to one shard.
type ShardTransport struct {
	conn    net.Conn   // Underlying TCP connection to the shard
	seq     uint32     // Monotonically increasing sequence number (protected by sending mutex), log correlation only
	pending sync.Map   // map[[16]byte]chan *message.ShardEnvelope — one entry per routed player
	sending sync.Mutex // Write lock — multiple goroutines share one conn, writes must be serialized
	//                    to prevent frame interleaving (player A's header + player B's body = corruption)
	closed atomic.Bool
}

// NewShardTransport creates a transport for the given connection and
// starts the background recvLoop that demultiplexes inbound envelopes by
// player UUID.
func NewShardTransport(conn net.Conn) *ShardTransport {
	t := &ShardTransport{conn: conn}
	go t.recvLoop()
	return t
}

// Register opens a routing slot for playerUUID and returns the channel
// envelopes addressed to that player will arrive on. Must be called
// before the first Send naming this player, to avoid a race with recvLoop.
func (t *ShardTransport) Register(playerUUID [16]byte) <-chan *message.ShardEnvelope {
	ch := make(chan *message.ShardEnvelope, 32)
	t.pending.Store(playerUUID, ch)
	return ch
}

// Unregister closes and removes playerUUID's routing slot.
func (t *ShardTransport) Unregister(playerUUID [16]byte) {
	if v, ok := t.pending.LoadAndDelete(playerUUID); ok {
		close(v.(chan *message.ShardEnvelope))
	}
}

// Send serializes and writes one envelope over the connection.
//
// Thread safety: the sending mutex ensures that the entire frame (header +
// body) is written atomically. Without this lock, concurrent writes from
// different players' goroutines would interleave bytes, corrupting the
// stream.
func (t *ShardTransport) Send(env *message.ShardEnvelope) error {
	body := encodeEnvelopeBody(env)

	t.sending.Lock()
	defer t.sending.Unlock()

	t.seq++
	header := protocol.Header{
		Kind:    env.Kind,
		Seq:     t.seq,
		BodyLen: uint32(len(body)),
	}
	return protocol.Encode(t.conn, &header, body)
}

// recvLoop runs in a dedicated goroutine, continuously reading envelopes
// from the connection. For each one, it looks up the player UUID in the
// pending map and routes the envelope to that player's channel. This is
// the core of multiplexing — envelopes for different players can arrive
// interleaved, and each is routed to the correct waiting consumer.
//
// Why a single goroutine for reading? TCP is a byte stream — reads must be
// sequential to correctly parse frame boundaries. Multiple readers would
// corrupt the stream.
func (t *ShardTransport) recvLoop() {
	for {
		header, body, err := protocol.Decode(t.conn)
		if err != nil {
			t.closeAllPending(err)
			return
		}

		env, err := decodeEnvelopeBody(header.Kind, body)
		if err != nil {
			continue // malformed envelope from a misbehaving shard; drop and keep reading
		}

		if v, ok := t.pending.Load(env.PlayerUUID); ok {
			ch := v.(chan *message.ShardEnvelope)
			select {
			case ch <- env:
			default:
				// Consumer fell behind; drop rather than block recvLoop and
				// stall every other player multiplexed on this connection.
			}
		}
	}
}

// closeAllPending is called when the connection breaks. It offers a
// synthetic disconnect envelope to every registered player and marks the
// transport closed. The send is non-blocking: a player whose channel is
// already full does not receive the disconnect envelope.
func (t *ShardTransport) closeAllPending(err error) {
	t.closed.Store(true)
	t.pending.Range(func(key, value any) bool {
		playerUUID := key.([16]byte)
		ch := value.(chan *message.ShardEnvelope)
		select {
		case ch <- &message.ShardEnvelope{PlayerUUID: playerUUID, Kind: message.EnvelopeDisconnect, Error: err.Error()}:
		default:
		}
		return true
	})
}

// Closed reports whether the underlying connection has failed.
func (t *ShardTransport) Closed() bool { return t.closed.Load() }

// Conn returns the underlying TCP connection.
func (t *ShardTransport) Conn() net.Conn { return t.conn }

// Close closes the underlying connection.
func (t *ShardTransport) Close() error { return t.conn.Close() }

// encodeEnvelopeBody packs a ShardEnvelope's PlayerUUID and kind-specific
// payload into the body bytes protocol.Encode writes after the header.
// Grounded on the schema-driven wire codec (package codec/wire): each
// field is written in an explicit, statically-known sequence rather than
// via reflection.
func encodeEnvelopeBody(env *message.ShardEnvelope) []byte {
	buf := wire.WriteUUID(nil, wire.UUID(env.PlayerUUID))
	switch env.Kind {
	case message.EnvelopeConnect:
		buf = wire.WriteString(buf, env.Username)
	case message.EnvelopeFrame:
		buf = append(buf, env.Payload...)
	case message.EnvelopeDisconnect:
		buf = wire.WriteString(buf, env.Error)
	}
	return buf
}

// decodeEnvelopeBody is encodeEnvelopeBody's inverse.
func decodeEnvelopeBody(kind message.EnvelopeKind, body []byte) (*message.ShardEnvelope, error) {
	r := bytes.NewReader(body)
	uuid, err := wire.ReadUUID(r)
	if err != nil {
		return nil, fmt.Errorf("transport: decode envelope uuid: %w", err)
	}
	env := &message.ShardEnvelope{PlayerUUID: [16]byte(uuid), Kind: kind}
	switch kind {
	case message.EnvelopeConnect:
		name, err := wire.ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode envelope username: %w", err)
		}
		env.Username = name
	case message.EnvelopeFrame:
		payload, err := wire.ReadByteTail(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode envelope payload: %w", err)
		}
		env.Payload = payload
	case message.EnvelopeDisconnect:
		errText, err := wire.ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("transport: decode envelope error text: %w", err)
		}
		env.Error = errText
	}
	return env, nil
}
