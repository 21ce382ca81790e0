package lottery

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"lukechampine.com/blake3"
)

// RandomnessSource yields a uniformly distributed value in [0, bound).
type RandomnessSource interface {
	Next(bound uint64) (uint64, error)
}

// RoundSeeder is implemented by sources that derive their output from the
// round being drawn. The engine calls SeedRound before Next.
type RoundSeeder interface {
	SeedRound(round uint64)
}

// SourceFunc adapts a function to RandomnessSource.
type SourceFunc func(bound uint64) (uint64, error)

// Next implements RandomnessSource.
func (f SourceFunc) Next(bound uint64) (uint64, error) { return f(bound) }

// CryptoSource draws from the operating system CSPRNG.
type CryptoSource struct{}

// Next implements RandomnessSource.
func (CryptoSource) Next(bound uint64) (uint64, error) {
	if bound == 0 {
		return 0, ErrInvalidArgument
	}
	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(bound))
	if err != nil {
		return 0, fmt.Errorf("lottery: read entropy: %w", err)
	}
	return v.Uint64(), nil
}

// BeaconSource derives values from BLAKE3(seed || round || counter). Output is
// reproducible from the seed, so anyone who knows the seed can predict every
// winner.
type BeaconSource struct {
	mu      sync.Mutex
	seed    []byte
	round   uint64
	counter uint64
}

// NewBeaconSource returns a deterministic source keyed by seed.
func NewBeaconSource(seed []byte) (*BeaconSource, error) {
	if len(seed) == 0 {
		return nil, errors.New("lottery: beacon seed must not be empty")
	}
	return &BeaconSource{seed: append([]byte(nil), seed...)}, nil
}

// SeedRound implements RoundSeeder and restarts the counter.
func (b *BeaconSource) SeedRound(round uint64) {
	b.mu.Lock()
	b.round = round
	b.counter = 0
	b.mu.Unlock()
}

// Next implements RandomnessSource using rejection sampling so every value in
// [0, bound) is equally likely.
func (b *BeaconSource) Next(bound uint64) (uint64, error) {
	if bound == 0 {
		return 0, ErrInvalidArgument
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	limit := math.MaxUint64 - (math.MaxUint64%bound+1)%bound
	buf := make([]byte, len(b.seed)+16)
	copy(buf, b.seed)
	for {
		binary.BigEndian.PutUint64(buf[len(b.seed):], b.round)
		binary.BigEndian.PutUint64(buf[len(b.seed)+8:], b.counter)
		b.counter++
		digest := blake3.Sum256(buf)
		v := binary.BigEndian.Uint64(digest[:8])
		if v <= limit {
			return v % bound, nil
		}
	}
}
