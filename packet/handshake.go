package packet

import "mcgate/codec"

// HandshakeNextState is the value of Handshake.NextState: which phase the
// connection asks to move into immediately after the handshake.
type HandshakeNextState int32

const (
	NextStateStatus HandshakeNextState = 1
	NextStateLogin  HandshakeNextState = 2
)

// Handshake is the single serverbound packet accepted in the Handshake
// phase, announcing the client's intended protocol version and next phase.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       HandshakeNextState
}

func (*Handshake) ID() int32 { return 0x00 }

func (p *Handshake) Encode(w *codec.Writer) {
	w.VarInt(p.ProtocolVersion)
	w.String(p.ServerAddress)
	w.U16(p.ServerPort)
	w.VarInt(int32(p.NextState))
}

func (p *Handshake) Decode(r *codec.Reader) error {
	pv, err := r.VarInt()
	if err != nil {
		return err
	}
	addr, err := r.String()
	if err != nil {
		return err
	}
	port, err := r.U16()
	if err != nil {
		return err
	}
	next, err := r.VarInt()
	if err != nil {
		return err
	}
	p.ProtocolVersion = pv
	p.ServerAddress = addr
	p.ServerPort = port
	p.NextState = HandshakeNextState(next)
	return nil
}
