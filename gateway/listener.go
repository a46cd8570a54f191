// Package gateway implements the accept loop and per-connection fan-out
// described in spec.md §4.G: one long-lived listener task, one independent
// task per accepted socket, and a bounded queue of new-connection events
// published to the application.
package gateway

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"mcgate/session"
)

// Config bounds a Listener's behavior.
type Config struct {
	BindAddress       string
	RSAKeyBits        int
	MaxFrameBytes     int
	HandshakeDeadline time.Duration
	InboundQueueDepth int
	AcceptQueueDepth  int
}

func (c Config) withDefaults() Config {
	if c.RSAKeyBits <= 0 {
		c.RSAKeyBits = 1024
	}
	if c.AcceptQueueDepth <= 0 {
		c.AcceptQueueDepth = 128
	}
	return c
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		MaxFrameBytes:     c.MaxFrameBytes,
		InboundQueueDepth: c.InboundQueueDepth,
		HandshakeDeadline: c.HandshakeDeadline,
	}
}

// Listener binds one TCP address and fans out accepted connections into
// independent per-connection tasks, publishing each new session.Connection
// through a single bounded channel (the "global queue of new-connection
// events" of spec.md §4.G).
type Listener struct {
	cfg    Config
	ln     net.Listener
	rsaKey *rsa.PrivateKey
	log    *slog.Logger

	newConns chan *session.Connection
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// Listen binds cfg.BindAddress and generates the gateway's long-lived RSA
// keypair, shared read-only across every connection task for the life of
// the Listener (spec.md §5, "shared resources").
func Listen(cfg Config, log *slog.Logger) (*Listener, error) {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	ln, err := net.Listen("tcp", cfg.BindAddress)
	if err != nil {
		return nil, fmt.Errorf("gateway: listen %s: %w", cfg.BindAddress, err)
	}
	key, err := rsa.GenerateKey(rand.Reader, cfg.RSAKeyBits)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("gateway: generating RSA keypair: %w", err)
	}
	return &Listener{
		cfg:      cfg,
		ln:       ln,
		rsaKey:   key,
		log:      log,
		newConns: make(chan *session.Connection, cfg.AcceptQueueDepth),
	}, nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// NewConnections is the receive end of the bounded new-connection event
// queue; the application drains this to learn about live connections and
// read each one's Inbound() frame queue.
func (l *Listener) NewConnections() <-chan *session.Connection { return l.newConns }

// Serve runs the accept loop until the listener is closed by Shutdown or
// the socket fails. It returns nil on an intentional shutdown.
func (l *Listener) Serve() error {
	defer close(l.newConns)
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.shutdown.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		sess := session.New(conn, l.rsaKey, l.cfg.sessionConfig(), l.log)
		l.wg.Add(1)
		l.newConns <- sess

		go func() {
			defer l.wg.Done()
			defer sess.Close()
			err := sess.Run(context.Background())
			if err != nil && !errors.Is(err, io.EOF) {
				l.log.Debug("connection closed", "remote", conn.RemoteAddr(), "err", err)
			}
		}()
	}
}

// Shutdown stops accepting new connections and waits up to timeout for
// in-flight connection tasks to finish.
func (l *Listener) Shutdown(timeout time.Duration) error {
	l.shutdown.Store(true)
	l.ln.Close()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("gateway: timeout waiting for connections to finish")
	}
}
