package gateway

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mcgate/packet"
)

func writeFrame(t *testing.T, w net.Conn, p packet.Packet) {
	t.Helper()
	pf := packet.Encode(p)
	_, err := w.Write(pf.Encode())
	require.NoError(t, err)
}

func TestListenerAcceptsAndPublishesConnection(t *testing.T) {
	l, err := Listen(Config{BindAddress: "127.0.0.1:0", RSAKeyBits: 512}, nil)
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- l.Serve() }()

	client, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	writeFrame(t, client, &packet.Handshake{
		ProtocolVersion: 769, ServerAddress: "x", ServerPort: 1, NextState: packet.NextStateStatus,
	})
	writeFrame(t, client, &packet.StatusRequest{})

	select {
	case sess := <-l.NewConnections():
		require.NotNil(t, sess)
		select {
		case f := <-sess.Inbound():
			var sr packet.StatusRequest
			require.NoError(t, packet.DecodeKnown(f.Frame.Body, &sr))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for forwarded status frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published connection")
	}

	// Shutdown waits for connection tasks, so the client leaves first.
	client.Close()
	require.NoError(t, l.Shutdown(2*time.Second))
	require.NoError(t, <-serveErr)
}

func TestListenerRejectsBadBindAddress(t *testing.T) {
	_, err := Listen(Config{BindAddress: "not-a-valid-address:::"}, nil)
	require.Error(t, err)
}
