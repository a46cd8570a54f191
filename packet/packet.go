// Package packet implements the packet catalogue & dispatch component: a
// static registry mapping (phase, direction, numeric id) to a concrete
// packet shape, plus the two codec entry points spec.md §4.C calls for —
// known-type decode (caller already knows the concrete packet) and generic
// decode (discriminated dispatch across every packet registered for a
// phase/direction pair).
//
// There is no runtime type registry/reflection here: Registry is a plain
// map built once at startup, and each packet type's own Encode/Decode
// methods are the schema (see DESIGN.md, "packet — component D").
package packet

import (
	"errors"
	"fmt"

	"mcgate/codec"
	"mcgate/frame"
)

// Phase is one of the four protocol phases a connection moves through.
type Phase int

const (
	PhaseHandshake Phase = iota
	PhaseStatus
	PhaseLogin
	PhasePlay
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshake:
		return "handshake"
	case PhaseStatus:
		return "status"
	case PhaseLogin:
		return "login"
	case PhasePlay:
		return "play"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Direction is which way a packet travels.
type Direction int

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	if d == Serverbound {
		return "serverbound"
	}
	return "clientbound"
}

// Packet is implemented by every concrete packet shape in the catalogue.
// ID returns the packet's own numeric id within its (phase, direction)
// pair — this is the "reverse map (descriptor -> id) is total" invariant:
// every packet type statically knows its own id, there is nothing to look
// up at runtime.
type Packet interface {
	ID() int32
	Encode(w *codec.Writer)
	Decode(r *codec.Reader) error
}

// Descriptor is a registered (phase, direction, id) -> shape binding.
type Descriptor struct {
	Phase     Phase
	Direction Direction
	ID        int32
	Name      string
	New       func() Packet
}

type key struct {
	phase     Phase
	direction Direction
	id        int32
}

// ErrDuplicateID is returned by Register when a (phase, direction, id)
// triple is already bound — the registry invariant that ids are unique
// within a (phase, direction) pair.
var ErrDuplicateID = errors.New("packet: duplicate (phase, direction, id) registration")

// ErrUnknownID is returned by DecodeGeneric when no descriptor matches the
// (phase, direction, id) read off the wire.
var ErrUnknownID = errors.New("packet: unknown packet id for phase/direction")

// ErrWrongID is returned by DecodeKnown when the id read off the wire
// doesn't match the caller-supplied packet's own id.
var ErrWrongID = errors.New("packet: wire id does not match expected packet type")

// Registry is a closed table of packet descriptors. The zero value is a
// valid, empty Registry.
type Registry struct {
	byKey map[key]Descriptor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[key]Descriptor)}
}

// Register adds a descriptor to the registry. It is an error to register
// the same (phase, direction, id) twice.
func (r *Registry) Register(d Descriptor) error {
	if r.byKey == nil {
		r.byKey = make(map[key]Descriptor)
	}
	k := key{d.Phase, d.Direction, d.ID}
	if _, exists := r.byKey[k]; exists {
		return fmt.Errorf("%w: phase=%s direction=%s id=0x%02x", ErrDuplicateID, d.Phase, d.Direction, d.ID)
	}
	r.byKey[k] = d
	return nil
}

// Lookup returns the descriptor registered for (phase, direction, id), if
// any.
func (r *Registry) Lookup(phase Phase, direction Direction, id int32) (Descriptor, bool) {
	d, ok := r.byKey[key{phase, direction, id}]
	return d, ok
}

// Encode serializes p into a frame body: the packet's own VarInt id
// followed by its fields, matching the write-side mirror of §4.C's
// known-type read ("consumes length, then id, discards both, then reads
// the shape").
func Encode(p Packet) *frame.PacketFrame {
	w := codec.NewWriter()
	w.VarInt(p.ID())
	p.Encode(w)
	return &frame.PacketFrame{Body: w.Bytes()}
}

// DecodeKnown decodes body (a frame's Body, i.e. id + payload) into p,
// whose concrete shape the caller already knows. It verifies the wire id
// matches p.ID() before reading p's fields.
func DecodeKnown(body []byte, p Packet) error {
	r := codec.NewReader(body)
	id, err := r.VarInt()
	if err != nil {
		return err
	}
	if id != p.ID() {
		return fmt.Errorf("%w: expected 0x%02x, got 0x%02x", ErrWrongID, p.ID(), id)
	}
	return p.Decode(r)
}

// DecodeGeneric decodes body by first reading its VarInt id and dispatching
// to whichever packet type is registered for (phase, direction, id) — the
// "generic decode (discriminated dispatch)" entry point of §4.C, used when
// the caller doesn't know in advance which packet shape is coming (e.g.
// framing-layer callers that just forward frames by phase).
func (r *Registry) DecodeGeneric(phase Phase, direction Direction, body []byte) (Packet, error) {
	cr := codec.NewReader(body)
	id, err := cr.VarInt()
	if err != nil {
		return nil, err
	}
	d, ok := r.Lookup(phase, direction, id)
	if !ok {
		return nil, fmt.Errorf("%w: phase=%s direction=%s id=0x%02x", ErrUnknownID, phase, direction, id)
	}
	p := d.New()
	if err := p.Decode(cr); err != nil {
		return nil, err
	}
	return p, nil
}
