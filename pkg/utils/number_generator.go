package utils

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	walletNumberMin = 100000
	walletNumberMax = 999999

	maxRandomAttempts = 50
	maxProbeAttempts  = 1000
)

// ExistsFunc reports whether a wallet number is already taken.
type ExistsFunc func(ctx context.Context, walletNumber int) (bool, error)

// WalletNumberGenerator produces unique human-facing 6-digit wallet numbers.
type WalletNumberGenerator struct{}

func NewWalletNumberGenerator() *WalletNumberGenerator {
	return &WalletNumberGenerator{}
}

// Generate draws random candidates in [100000, 999999] and checks each
// against the store. After maxRandomAttempts misses it falls back to
// linear probing from a clock-seeded candidate, still rechecking
// uniqueness on every step, so a taken number is never handed out.
func (g *WalletNumberGenerator) Generate(ctx context.Context, exists ExistsFunc) (int, error) {
	span := int64(walletNumberMax - walletNumberMin + 1)

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(span))
		if err != nil {
			return 0, fmt.Errorf("failed to draw wallet number: %w", err)
		}
		candidate := walletNumberMin + int(n.Int64())

		taken, err := exists(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
	}

	// The random space is congested; probe sequentially from a
	// clock-derived starting point, wrapping at the upper bound.
	candidate := walletNumberMin + int(time.Now().UnixNano()%span)
	for attempt := 0; attempt < maxProbeAttempts; attempt++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
		candidate++
		if candidate > walletNumberMax {
			candidate = walletNumberMin
		}
	}

	return 0, fmt.Errorf("wallet number space exhausted after %d probes", maxProbeAttempts)
}

// ReferenceGenerator issues sortable ULID reference codes for audit records.
type ReferenceGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewReference returns a 26-character ULID. Monotonic entropy keeps codes
// generated in the same millisecond ordered.
func (g *ReferenceGenerator) NewReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
