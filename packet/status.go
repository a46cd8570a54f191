package packet

import "mcgate/codec"

// StatusRequest is the empty serverbound packet that asks for a
// StatusResponse.
type StatusRequest struct{}

func (*StatusRequest) ID() int32                  { return 0x00 }
func (*StatusRequest) Encode(*codec.Writer)       {}
func (*StatusRequest) Decode(*codec.Reader) error { return nil }

// StatusResponse is the clientbound reply to StatusRequest: a single
// opaque JSON document. Parsing that document's structure is out of
// scope here; it is carried as an uninterpreted string.
type StatusResponse struct {
	JSONResponse string
}

func (*StatusResponse) ID() int32 { return 0x00 }

func (p *StatusResponse) Encode(w *codec.Writer) {
	w.String(p.JSONResponse)
}

func (p *StatusResponse) Decode(r *codec.Reader) error {
	s, err := r.String()
	if err != nil {
		return err
	}
	p.JSONResponse = s
	return nil
}

// PingRequest carries an opaque i64 payload the server must echo back
// unchanged in a PingResponse.
type PingRequest struct {
	Payload int64
}

func (*PingRequest) ID() int32 { return 0x01 }

func (p *PingRequest) Encode(w *codec.Writer) {
	w.I64(p.Payload)
}

func (p *PingRequest) Decode(r *codec.Reader) error {
	v, err := r.I64()
	if err != nil {
		return err
	}
	p.Payload = v
	return nil
}

// PingResponse echoes a PingRequest's payload back to the client.
type PingResponse struct {
	Payload int64
}

func (*PingResponse) ID() int32 { return 0x01 }

func (p *PingResponse) Encode(w *codec.Writer) {
	w.I64(p.Payload)
}

func (p *PingResponse) Decode(r *codec.Reader) error {
	v, err := r.I64()
	if err != nil {
		return err
	}
	p.Payload = v
	return nil
}
