package packet

import (
	"mcgate/codec"
	"mcgate/wire"
)

// LoginStart is the serverbound packet that opens the Login phase.
type LoginStart struct {
	Name       string
	PlayerUUID *wire.UUID
}

func (*LoginStart) ID() int32 { return 0x00 }

func (p *LoginStart) Encode(w *codec.Writer) {
	w.String(p.Name)
	w.Optional(p.PlayerUUID != nil, func(w *codec.Writer) {
		w.UUID(*p.PlayerUUID)
	})
}

func (p *LoginStart) Decode(r *codec.Reader) error {
	name, err := r.String()
	if err != nil {
		return err
	}
	p.Name = name
	p.PlayerUUID = nil
	_, err = r.Optional(func(r *codec.Reader) error {
		u, err := r.UUID()
		if err != nil {
			return err
		}
		p.PlayerUUID = &u
		return nil
	})
	return err
}

// EncryptionResponse is the serverbound reply to EncryptionRequest,
// carrying the RSA-encrypted shared secret and verify token.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (*EncryptionResponse) ID() int32 { return 0x01 }

func (p *EncryptionResponse) Encode(w *codec.Writer) {
	_ = w.ByteVec(p.SharedSecret)
	_ = w.ByteVec(p.VerifyToken)
}

func (p *EncryptionResponse) Decode(r *codec.Reader) error {
	secret, err := r.ByteVec()
	if err != nil {
		return err
	}
	token, err := r.ByteVec()
	if err != nil {
		return err
	}
	p.SharedSecret = secret
	p.VerifyToken = token
	return nil
}

// EncryptionRequest is the clientbound packet that starts the login
// encryption handshake: a server id, the server's RSA public key (DER,
// PKCS#1), and a random verify token the client must echo back encrypted.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func (*EncryptionRequest) ID() int32 { return 0x01 }

func (p *EncryptionRequest) Encode(w *codec.Writer) {
	w.String(p.ServerID)
	_ = w.ByteVec(p.PublicKey)
	_ = w.ByteVec(p.VerifyToken)
}

func (p *EncryptionRequest) Decode(r *codec.Reader) error {
	id, err := r.String()
	if err != nil {
		return err
	}
	key, err := r.ByteVec()
	if err != nil {
		return err
	}
	token, err := r.ByteVec()
	if err != nil {
		return err
	}
	p.ServerID = id
	p.PublicKey = key
	p.VerifyToken = token
	return nil
}

// PropertyVariant discriminates the LoginSuccess.Properties union.
type PropertyVariant int32

const (
	PropertyNone  PropertyVariant = 0
	PropertyOne   PropertyVariant = 1
	PropertyTwo   PropertyVariant = 2
	PropertyThree PropertyVariant = 3
	PropertyFour  PropertyVariant = 4
)

// LoginProperty is the tagged-union payload carried by LoginSuccess: how
// many fields are populated, and which, depends entirely on Variant.
type LoginProperty struct {
	Variant   PropertyVariant
	Name      string
	Value     string
	IsSigned  bool
	Signature *string
}

func (p *LoginProperty) encode(w *codec.Writer) {
	w.UnionID(int32(p.Variant))
	switch p.Variant {
	case PropertyNone:
	case PropertyOne:
		w.String(p.Name)
	case PropertyTwo:
		w.String(p.Name)
		w.String(p.Value)
	case PropertyThree:
		w.String(p.Name)
		w.String(p.Value)
		w.Bool(p.IsSigned)
	case PropertyFour:
		w.String(p.Name)
		w.String(p.Value)
		w.Optional(p.Signature != nil, func(w *codec.Writer) {
			w.String(*p.Signature)
		})
	}
}

func (p *LoginProperty) decode(r *codec.Reader) error {
	id, err := r.UnionID()
	if err != nil {
		return err
	}
	p.Variant = PropertyVariant(id)
	p.Signature = nil
	switch p.Variant {
	case PropertyNone:
		return nil
	case PropertyOne:
		name, err := r.String()
		if err != nil {
			return err
		}
		p.Name = name
		return nil
	case PropertyTwo:
		name, err := r.String()
		if err != nil {
			return err
		}
		value, err := r.String()
		if err != nil {
			return err
		}
		p.Name, p.Value = name, value
		return nil
	case PropertyThree:
		name, err := r.String()
		if err != nil {
			return err
		}
		value, err := r.String()
		if err != nil {
			return err
		}
		signed, err := r.Bool()
		if err != nil {
			return err
		}
		p.Name, p.Value, p.IsSigned = name, value, signed
		return nil
	case PropertyFour:
		name, err := r.String()
		if err != nil {
			return err
		}
		value, err := r.String()
		if err != nil {
			return err
		}
		p.Name, p.Value = name, value
		_, err = r.Optional(func(r *codec.Reader) error {
			sig, err := r.String()
			if err != nil {
				return err
			}
			p.Signature = &sig
			return nil
		})
		return err
	default:
		return codec.ErrUnknownVariant
	}
}

// LoginSuccess is the clientbound packet that completes the Login phase,
// handing the client its assigned identity.
type LoginSuccess struct {
	UUID       wire.UUID
	Username   string
	Properties LoginProperty
}

func (*LoginSuccess) ID() int32 { return 0x02 }

func (p *LoginSuccess) Encode(w *codec.Writer) {
	w.UUID(p.UUID)
	w.String(p.Username)
	p.Properties.encode(w)
}

func (p *LoginSuccess) Decode(r *codec.Reader) error {
	u, err := r.UUID()
	if err != nil {
		return err
	}
	name, err := r.String()
	if err != nil {
		return err
	}
	p.UUID = u
	p.Username = name
	return p.Properties.decode(r)
}

// SetCompression is the clientbound packet enabling the post-core,
// opt-in compression scheme declared out of scope for decompression logic
// here (see compressx); only the threshold is carried.
type SetCompression struct {
	Threshold int32
}

func (*SetCompression) ID() int32 { return 0x03 }

func (p *SetCompression) Encode(w *codec.Writer) {
	w.VarInt(p.Threshold)
}

func (p *SetCompression) Decode(r *codec.Reader) error {
	v, err := r.VarInt()
	if err != nil {
		return err
	}
	p.Threshold = v
	return nil
}
