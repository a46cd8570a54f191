package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvelopeKindString(t *testing.T) {
	require.Equal(t, "connect", EnvelopeConnect.String())
	require.Equal(t, "frame", EnvelopeFrame.String())
	require.Equal(t, "disconnect", EnvelopeDisconnect.String())
	require.Equal(t, "unknown", EnvelopeKind(99).String())
}

func TestShardEnvelopeZeroValueIsConnectFrame(t *testing.T) {
	var env ShardEnvelope
	require.Equal(t, EnvelopeConnect, env.Kind)
	require.Empty(t, env.Error)
	require.Empty(t, env.Payload)
}

func TestShardEnvelopeCarriesPlayerAddressedPayload(t *testing.T) {
	env := ShardEnvelope{
		PlayerUUID: [16]byte{0x01, 0x02},
		Username:   "Notch",
		Kind:       EnvelopeFrame,
		Payload:    []byte{0x00, 0x01, 0x02},
	}
	require.Equal(t, byte(0x01), env.PlayerUUID[0])
	require.Equal(t, "Notch", env.Username)
	require.Len(t, env.Payload, 3)
}
