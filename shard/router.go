// Package shard implements the gateway side of component H: routing a
// connecting player to a simulation-shard backend and forwarding their
// opaque Play-phase frames to and from it over the internal gateway↔shard
// link (see package protocol and package message).
//
// Router is client/client.go's Client generalized from "pick a service
// instance, send one RPC, wait for the reply" to "pick a shard, open a
// standing multiplexed route, forward a frame stream until the player
// disconnects" — the service-discovery → load-balance → shared-transport
// shape survives the generalization unchanged.
//
// Every connect first passes through the package middleware chain
// (logging, then token-bucket rate limiting) built in NewRouter, so a
// connect storm is rejected before it ever reaches pick/dial.
package shard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/cenkalti/backoff/v4"

	"mcgate/config"
	"mcgate/frame"
	"mcgate/loadbalance"
	"mcgate/message"
	"mcgate/middleware"
	"mcgate/registry"
	"mcgate/transport"
)

// ServiceName is the service name simulation shards register themselves
// under, inside the shard registry's namespace (cmd/gateway uses
// "/mcgate/shards/").
const ServiceName = "play"

// connectRateLimit and connectRateBurst bound how fast this Router admits
// new players into routing, independent of how many shards are behind it —
// a token-bucket backstop against a connect storm saturating the dial/pick
// path (see middleware.RateLimitMiddleware).
const (
	connectRateLimit = 200
	connectRateBurst = 400
)

// ErrNoShardsAvailable is returned when the registry has no live shard
// instances to route to.
var ErrNoShardsAvailable = errors.New("shard: no shard instances available")

// Router picks a shard for each connecting player and bridges that
// player's Play-phase frame stream to it.
type Router struct {
	registry registry.Registry
	mode     config.ShardBalancer
	balancer loadbalance.Balancer
	chash    *loadbalance.ConsistentHashBalancer
	log      *slog.Logger
	decide   middleware.HandlerFunc

	mu         sync.Mutex
	transports map[string]*transport.ShardTransport
}

// NewRouter builds a Router backed by reg, selecting shards with the
// strategy mode names.
func NewRouter(reg registry.Registry, mode config.ShardBalancer, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	r := &Router{
		registry:   reg,
		mode:       mode,
		log:        log,
		transports: make(map[string]*transport.ShardTransport),
	}
	switch mode {
	case config.BalancerWeightedRandom:
		r.balancer = &loadbalance.WeightedRandomBalancer{}
	case config.BalancerConsistentHash:
		r.chash = loadbalance.NewConsistentHashBalancer()
	default:
		r.balancer = &loadbalance.RoundRobinBalancer{}
	}
	r.decide = middleware.Chain(
		middleware.LoggingMiddleware(),
		middleware.RateLimitMiddleware(connectRateLimit, connectRateBurst),
	)(admitConnect)
	return r
}

// admitConnect is the innermost routing-decision handler the middleware
// chain wraps: picking/dialing happens afterward in Route, so there is
// nothing left for it to do but let the envelope through unchanged.
func admitConnect(_ context.Context, req *message.ShardEnvelope) *message.ShardEnvelope {
	return req
}

// pick selects a shard instance for playerUUID, consulting the registry
// fresh on every call — simulation shards can join or leave the pool
// between connects.
func (r *Router) pick(playerUUID [16]byte) (*registry.ServiceInstance, error) {
	instances, err := r.registry.Discover(ServiceName)
	if err != nil {
		return nil, fmt.Errorf("shard: discover: %w", err)
	}
	if len(instances) == 0 {
		return nil, ErrNoShardsAvailable
	}

	if r.mode == config.BalancerConsistentHash {
		ring := loadbalance.NewConsistentHashBalancer()
		for i := range instances {
			ring.Add(&instances[i])
		}
		r.mu.Lock()
		r.chash = ring
		r.mu.Unlock()
		return ring.Pick(fmt.Sprintf("%x", playerUUID))
	}
	return r.balancer.Pick(instances)
}

// getTransport returns the shared ShardTransport for addr, dialing (with
// exponential backoff retry) if this is the first player routed there.
func (r *Router) getTransport(ctx context.Context, addr string) (*transport.ShardTransport, error) {
	r.mu.Lock()
	if t, ok := r.transports[addr]; ok && !t.Closed() {
		r.mu.Unlock()
		return t, nil
	}
	r.mu.Unlock()

	var conn net.Conn
	dial := func() error {
		c, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(dial, bo); err != nil {
		return nil, fmt.Errorf("shard: dial %s: %w", addr, err)
	}

	t := transport.NewShardTransport(conn)
	r.mu.Lock()
	r.transports[addr] = t
	r.mu.Unlock()
	return t, nil
}

// Route opens routing for playerUUID: it picks a shard, registers the
// player on that shard's transport, announces the connect, and bridges
// frames in both directions until in closes, out returns an error, ctx is
// cancelled, or the shard reports a disconnect. It always returns once the
// route ends, having sent a disconnect envelope to the shard.
//
// in is the player's forwarded Play-phase frames (session.Connection's
// Inbound(), already filtered to PhasePlay by the caller); out writes a
// shard-originated frame back to that player's connection
// (session.Connection.WriteFrame).
func (r *Router) Route(ctx context.Context, playerUUID [16]byte, username string, in <-chan *frame.PacketFrame, out func(*frame.PacketFrame) error) error {
	decision := r.decide(ctx, &message.ShardEnvelope{PlayerUUID: playerUUID, Username: username, Kind: message.EnvelopeConnect})
	if decision.Error != "" {
		return fmt.Errorf("shard: %s", decision.Error)
	}

	inst, err := r.pick(playerUUID)
	if err != nil {
		return err
	}
	t, err := r.getTransport(ctx, inst.Addr)
	if err != nil {
		return err
	}

	shardInbound := t.Register(playerUUID)
	defer t.Unregister(playerUUID)

	if err := t.Send(&message.ShardEnvelope{PlayerUUID: playerUUID, Username: username, Kind: message.EnvelopeConnect}); err != nil {
		return fmt.Errorf("shard: send connect: %w", err)
	}
	defer t.Send(&message.ShardEnvelope{PlayerUUID: playerUUID, Kind: message.EnvelopeDisconnect})

	errCh := make(chan error, 2)

	go func() {
		for env := range shardInbound {
			if env.Kind == message.EnvelopeDisconnect {
				if env.Error != "" {
					errCh <- fmt.Errorf("shard: %s", env.Error)
				} else {
					errCh <- nil
				}
				return
			}
			if err := out(&frame.PacketFrame{Body: env.Payload}); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	go func() {
		for pf := range in {
			if err := t.Send(&message.ShardEnvelope{PlayerUUID: playerUUID, Kind: message.EnvelopeFrame, Payload: pf.Body}); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears down every shared transport this Router dialed.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for addr, t := range r.transports {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.transports, addr)
	}
	return firstErr
}
