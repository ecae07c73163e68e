package password

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters. They are fixed for the life of a
// deployment: the derivation cost is the anti-brute-force mechanism, so it is
// tuned to take on the order of 100-300ms on commodity hardware.
type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
	SaltLength  uint32
}

// DefaultParams returns the production cost parameters
// (64 MiB, ~130-250ms per derivation).
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        1,
		Parallelism: 4,
		KeyLength:   32,
		SaltLength:  16,
	}
}

// Config holds configuration for the password service
type Config struct {
	Params Params
	// Workers bounds how many derivations run concurrently. Hashing is
	// CPU-bound; the pool keeps a login burst from starving request
	// handling. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns default password service configuration
func DefaultConfig() Config {
	return Config{
		Params:  DefaultParams(),
		Workers: 0,
	}
}

// Service derives and verifies salted password hashes
type Service struct {
	params  Params
	workers chan struct{}
}

// New creates a new password service
func New(cfg Config) *Service {
	if cfg.Params == (Params{}) {
		cfg.Params = DefaultParams()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Service{
		params:  cfg.Params,
		workers: make(chan struct{}, workers),
	}
}

// Hash derives a one-way hash of password with a fresh random salt.
// An entropy-source failure is returned, never papered over.
func (s *Service) Hash(ctx context.Context, password string) (hash, salt []byte, err error) {
	salt = make([]byte, s.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generating salt: %w", err)
	}

	hash, err = s.derive(ctx, password, salt)
	if err != nil {
		return nil, nil, err
	}
	return hash, salt, nil
}

// Verify recomputes the hash of password with the stored salt and compares it
// to the stored hash in constant time
func (s *Service) Verify(ctx context.Context, password string, hash, salt []byte) (bool, error) {
	derived, err := s.derive(ctx, password, salt)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(derived, hash) == 1, nil
}

// derive runs the key derivation on the bounded worker pool. The caller's
// goroutine blocks, but only Workers derivations occupy CPUs at once.
func (s *Service) derive(ctx context.Context, password string, salt []byte) ([]byte, error) {
	select {
	case s.workers <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.workers }()

	key := argon2.IDKey([]byte(password), salt,
		s.params.Time, s.params.Memory, s.params.Parallelism, s.params.KeyLength)
	return key, nil
}
