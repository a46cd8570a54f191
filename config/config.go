// Package config defines the gateway's closed set of runtime options and
// binds them to command-line flags via spf13/pflag, the way a cobra-based
// CLI command declares its flags.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// ShardBalancer selects which load-balancing strategy the shard router
// uses to pick a backend instance.
type ShardBalancer string

const (
	BalancerRoundRobin     ShardBalancer = "round_robin"
	BalancerWeightedRandom ShardBalancer = "weighted_random"
	BalancerConsistentHash ShardBalancer = "consistent_hash"
)

// Config is the gateway's closed configuration surface (spec.md §6, plus
// the orthogonal opt-in cluster/shard-routing options this expansion
// adds). The zero value is not valid; call Defaults() or parse flags.
type Config struct {
	BindAddress       string
	RSAKeyBits        int
	MaxFrameBytes     int
	HandshakeDeadline time.Duration
	InboundQueueDepth int

	// EtcdEndpoints, when non-empty, enables the cluster/shard registry
	// and router layered on top of the core listener. Empty means exactly
	// spec.md's described standalone behavior.
	EtcdEndpoints []string
	ShardBalancer ShardBalancer

	LogLevel string
}

// Defaults returns the closed set's documented defaults.
func Defaults() Config {
	return Config{
		BindAddress:       "0.0.0.0:25565",
		RSAKeyBits:        1024,
		MaxFrameBytes:     2*1024*1024 - 1,
		HandshakeDeadline: 30 * time.Second,
		InboundQueueDepth: 256,
		ShardBalancer:     BalancerRoundRobin,
		LogLevel:          "info",
	}
}

// BindFlags registers every Config field onto fs, pre-populated with its
// current values — the pattern a cobra.Command's Flags() call expects
// before the command executes.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.BindAddress, "bind-address", c.BindAddress, "TCP address to listen on")
	fs.IntVar(&c.RSAKeyBits, "rsa-key-bits", c.RSAKeyBits, "RSA key size for the login encryption handshake")
	fs.IntVar(&c.MaxFrameBytes, "max-frame-bytes", c.MaxFrameBytes, "maximum accepted frame body length")
	fs.DurationVar(&c.HandshakeDeadline, "handshake-deadline", c.HandshakeDeadline, "deadline from accept to entering the status or play phase")
	fs.IntVar(&c.InboundQueueDepth, "inbound-queue-depth", c.InboundQueueDepth, "bounded per-connection inbound frame queue depth")
	fs.StringSliceVar(&c.EtcdEndpoints, "etcd-endpoints", c.EtcdEndpoints, "etcd endpoints; enables the cluster/shard registry when non-empty")
	fs.StringVar((*string)(&c.ShardBalancer), "shard-balancer", string(c.ShardBalancer), "shard balancer: round_robin, weighted_random, or consistent_hash")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, or error")
}

// Validate checks the closed set's invariants.
func (c Config) Validate() error {
	if c.BindAddress == "" {
		return fmt.Errorf("config: bind-address must not be empty")
	}
	if c.RSAKeyBits < 512 {
		return fmt.Errorf("config: rsa-key-bits must be at least 512")
	}
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("config: max-frame-bytes must be positive")
	}
	if c.InboundQueueDepth <= 0 {
		return fmt.Errorf("config: inbound-queue-depth must be positive")
	}
	switch c.ShardBalancer {
	case BalancerRoundRobin, BalancerWeightedRandom, BalancerConsistentHash:
	default:
		return fmt.Errorf("config: unknown shard-balancer %q", c.ShardBalancer)
	}
	return nil
}

// ClusterEnabled reports whether the etcd-backed cluster/shard registry
// and router should be constructed.
func (c Config) ClusterEnabled() bool { return len(c.EtcdEndpoints) > 0 }
