package packet

// Default is the closed catalogue of every packet shape this gateway
// understands, registered once at package init. Nothing outside this
// file adds to it at runtime.
var Default = buildDefaultRegistry()

func buildDefaultRegistry() *Registry {
	reg := NewRegistry()
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(reg.Register(Descriptor{
		Phase: PhaseHandshake, Direction: Serverbound, ID: 0x00, Name: "handshake",
		New: func() Packet { return &Handshake{} },
	}))

	must(reg.Register(Descriptor{
		Phase: PhaseStatus, Direction: Serverbound, ID: 0x00, Name: "status_request",
		New: func() Packet { return &StatusRequest{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseStatus, Direction: Serverbound, ID: 0x01, Name: "ping_request",
		New: func() Packet { return &PingRequest{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseStatus, Direction: Clientbound, ID: 0x00, Name: "status_response",
		New: func() Packet { return &StatusResponse{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseStatus, Direction: Clientbound, ID: 0x01, Name: "ping_response",
		New: func() Packet { return &PingResponse{} },
	}))

	must(reg.Register(Descriptor{
		Phase: PhaseLogin, Direction: Serverbound, ID: 0x00, Name: "login_start",
		New: func() Packet { return &LoginStart{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseLogin, Direction: Serverbound, ID: 0x01, Name: "encryption_response",
		New: func() Packet { return &EncryptionResponse{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseLogin, Direction: Clientbound, ID: 0x01, Name: "encryption_request",
		New: func() Packet { return &EncryptionRequest{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseLogin, Direction: Clientbound, ID: 0x02, Name: "login_success",
		New: func() Packet { return &LoginSuccess{} },
	}))
	must(reg.Register(Descriptor{
		Phase: PhaseLogin, Direction: Clientbound, ID: 0x03, Name: "set_compression",
		New: func() Packet { return &SetCompression{} },
	}))

	return reg
}
