package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"mcgate/frame"
	"mcgate/packet"
)

func testRSAKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	return key
}

func writeFrame(t *testing.T, w net.Conn, p packet.Packet) {
	t.Helper()
	pf := packet.Encode(p)
	_, err := w.Write(pf.Encode())
	require.NoError(t, err)
}

func readFrame(t *testing.T, r io.Reader) *frame.PacketFrame {
	t.Helper()
	fr := frame.NewFramer(0)
	pf, err := fr.ReadPacket(r)
	require.NoError(t, err)
	require.NotNil(t, pf)
	return pf
}

func TestConnectionStatusPhaseForwardsFramesVerbatim(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	key := testRSAKey(t)
	conn := New(serverConn, key, Config{}, nil)

	done := make(chan error, 1)
	go func() { done <- conn.Run(context.Background()) }()

	writeFrame(t, clientConn, &packet.Handshake{
		ProtocolVersion: 769, ServerAddress: "x", ServerPort: 1, NextState: packet.NextStateStatus,
	})
	writeFrame(t, clientConn, &packet.StatusRequest{})
	writeFrame(t, clientConn, &packet.PingRequest{Payload: 42})

	var got []Frame
	for i := 0; i < 2; i++ {
		select {
		case f, ok := <-conn.Inbound():
			require.True(t, ok)
			got = append(got, f)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for forwarded frame")
		}
	}

	require.Equal(t, PhaseStatus, got[0].Phase)
	var sr packet.StatusRequest
	require.NoError(t, packet.DecodeKnown(got[0].Frame.Body, &sr))

	require.Equal(t, PhaseStatus, got[1].Phase)
	var ping packet.PingRequest
	require.NoError(t, packet.DecodeKnown(got[1].Frame.Body, &ping))
	require.EqualValues(t, 42, ping.Payload)

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after client closed")
	}
}

func TestConnectionLoginHappyPath(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	key := testRSAKey(t)
	conn := New(serverConn, key, Config{}, nil)

	done := make(chan error, 1)
	go func() { done <- conn.Run(context.Background()) }()

	writeFrame(t, clientConn, &packet.Handshake{
		ProtocolVersion: 769, ServerAddress: "x", ServerPort: 1, NextState: packet.NextStateLogin,
	})
	writeFrame(t, clientConn, &packet.LoginStart{Name: "alice"})

	encReqFrame := readFrame(t, clientConn)
	var encReq packet.EncryptionRequest
	require.NoError(t, packet.DecodeKnown(encReqFrame.Body, &encReq))
	require.Len(t, encReq.VerifyToken, 4)

	pub, err := x509.ParsePKCS1PublicKey(encReq.PublicKey)
	require.NoError(t, err)

	sharedSecret := make([]byte, 16)
	_, err = rand.Read(sharedSecret)
	require.NoError(t, err)

	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, encReq.VerifyToken)
	require.NoError(t, err)
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, sharedSecret)
	require.NoError(t, err)

	writeFrame(t, clientConn, &packet.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken})

	// From here on the wire is AES/CFB8 encrypted with key=IV=sharedSecret.
	decBlock, err := aes.NewCipher(sharedSecret)
	require.NoError(t, err)
	encryptedClientReader := &cipher.StreamReader{S: NewCFB8Decrypter(decBlock, sharedSecret), R: clientConn}

	loginSuccessFrame := readFrame(t, encryptedClientReader)
	var success packet.LoginSuccess
	require.NoError(t, packet.DecodeKnown(loginSuccessFrame.Body, &success))
	require.Equal(t, "alice", success.Username)

	select {
	case <-done:
		t.Fatal("Run returned before Play-phase forwarding began")
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, PhasePlay, conn.Phase())
	require.Equal(t, "alice", conn.Identity().Name)

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after client closed")
	}
}

func TestConnectionLoginBadVerifyToken(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	key := testRSAKey(t)
	conn := New(serverConn, key, Config{}, nil)

	done := make(chan error, 1)
	go func() { done <- conn.Run(context.Background()) }()

	writeFrame(t, clientConn, &packet.Handshake{
		ProtocolVersion: 769, ServerAddress: "x", ServerPort: 1, NextState: packet.NextStateLogin,
	})
	writeFrame(t, clientConn, &packet.LoginStart{Name: "mallory"})

	encReqFrame := readFrame(t, clientConn)
	var encReq packet.EncryptionRequest
	require.NoError(t, packet.DecodeKnown(encReqFrame.Body, &encReq))

	pub, err := x509.ParsePKCS1PublicKey(encReq.PublicKey)
	require.NoError(t, err)

	sharedSecret := make([]byte, 16)
	_, err = rand.Read(sharedSecret)
	require.NoError(t, err)

	wrongToken := make([]byte, len(encReq.VerifyToken))
	copy(wrongToken, encReq.VerifyToken)
	wrongToken[0] ^= 0xff // flip a bit so it no longer matches the server's token

	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, wrongToken)
	require.NoError(t, err)
	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, sharedSecret)
	require.NoError(t, err)

	writeFrame(t, clientConn, &packet.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken})

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrVerifyTokenMismatch)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a bad verify token")
	}
	require.NotEqual(t, PhasePlay, conn.Phase())

	// No LoginSuccess (or anything else) was ever written to the client
	// once the mismatch was detected.
	require.NoError(t, clientConn.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	buf := make([]byte, 1)
	_, err = clientConn.Read(buf)
	require.Error(t, err)
}
