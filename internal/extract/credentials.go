// Package extract drives one image at a time through the external
// text-extraction and structuring service, with retries, backoff, and a
// deterministic fallback parser.
package extract

import (
	"fmt"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// Credential is one API key from the configured pool. ID is what gets
// recorded on results; the raw key never leaves this package's callers.
type Credential struct {
	ID  string
	Key string
}

// CredentialProvider hands out the credential for the next API call.
// Implementations must be safe for concurrent use and side-effect free from
// the caller's perspective.
type CredentialProvider interface {
	Next() Credential
}

// RotationStrategy selects how a static pool hands out keys.
type RotationStrategy string

const (
	// StrategyPinned always returns the first key, keeping quota accounting
	// on a single credential.
	StrategyPinned RotationStrategy = "pinned"
	// StrategyRoundRobin rotates through the pool per call.
	StrategyRoundRobin RotationStrategy = "roundrobin"
)

// StaticPool is a fixed credential list with an injectable rotation strategy.
type StaticPool struct {
	creds    []Credential
	strategy RotationStrategy
	cursor   atomic.Uint64
}

// NewStaticPool builds a pool from raw keys. Key identifiers are positional.
func NewStaticPool(keys []string, strategy RotationStrategy) (*StaticPool, error) {
	if len(keys) == 0 {
		return nil, eris.New("credentials: empty key pool")
	}
	if strategy == "" {
		strategy = StrategyPinned
	}

	creds := make([]Credential, len(keys))
	for i, k := range keys {
		creds[i] = Credential{ID: fmt.Sprintf("key-%d", i+1), Key: k}
	}
	return &StaticPool{creds: creds, strategy: strategy}, nil
}

// Next returns the next credential per the pool's strategy.
func (p *StaticPool) Next() Credential {
	if p.strategy == StrategyRoundRobin {
		n := p.cursor.Add(1) - 1
		return p.creds[n%uint64(len(p.creds))]
	}
	return p.creds[0]
}
