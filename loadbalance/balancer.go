// Package loadbalance provides load balancing strategies for distributing
// routed players across multiple shard instances.
//
// Three strategies are implemented:
//   - RoundRobin:      Stateless services, equal-capacity instances
//   - WeightedRandom:  Heterogeneous instances (different CPU/memory)
//   - ConsistentHash:  Stateful services requiring cache affinity
package loadbalance

import "mcgate/registry"

// Balancer is the interface for load balancing strategies.
// The shard router calls Pick() for each player it routes to select a
// target instance.
type Balancer interface {
	// Pick selects one instance from the available list.
	// Called concurrently for many players — must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
