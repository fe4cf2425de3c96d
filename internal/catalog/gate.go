package catalog

import (
	"fmt"
	"sync"
)

type AccessPolicy string

const (
	// PolicyExclusive runs at most one store operation at a time.
	PolicyExclusive AccessPolicy = "exclusive"
	// PolicySharedRead lets reads overlap; writes stay exclusive.
	PolicySharedRead AccessPolicy = "shared-read"
)

func ParseAccessPolicy(s string) (AccessPolicy, error) {
	switch p := AccessPolicy(s); p {
	case PolicyExclusive, PolicySharedRead:
		return p, nil
	case "":
		return PolicyExclusive, nil
	default:
		return "", fmt.Errorf("unknown access policy %q", s)
	}
}

type gate struct {
	mu     sync.RWMutex
	policy AccessPolicy
}

func newGate(p AccessPolicy) *gate {
	if p == "" {
		p = PolicyExclusive
	}
	return &gate{policy: p}
}

func (g *gate) acquire(write bool) (release func()) {
	if write || g.policy == PolicyExclusive {
		g.mu.Lock()
		return g.mu.Unlock
	}
	g.mu.RLock()
	return g.mu.RUnlock
}
