package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// MinHashInputLength is the shortest plaintext the hasher accepts.
const MinHashInputLength = 8

// Supported hashing algorithms.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// ErrWeakPassword is returned by Hash for plaintexts shorter than MinHashInputLength.
var ErrWeakPassword = errors.New("security: password too short to hash")

type hashAlgorithm interface {
	name() string
	hash(password string) (string, error)
	matches(encoded string) bool
	compare(password, encoded string) (bool, error)
}

// HasherConfig selects the algorithm used for new hashes and its work factor.
type HasherConfig struct {
	Algorithm   string
	BcryptCost  int
	Argon2      Argon2Config
	Concurrency int
}

// PasswordHasher hashes new passwords with the configured algorithm and verifies
// any supported stored format. Work runs behind a weighted gate so hashing bursts
// cannot occupy every CPU.
type PasswordHasher struct {
	primary    hashAlgorithm
	algorithms []hashAlgorithm
	gate       *semaphore.Weighted
	logger     *zap.Logger
}

// NewPasswordHasher validates the configuration and builds a hasher.
func NewPasswordHasher(cfg HasherConfig, logger *zap.Logger) (*PasswordHasher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bc, err := newBcryptAlgorithm(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	argonCfg := cfg.Argon2
	if argonCfg == (Argon2Config{}) {
		argonCfg = DefaultArgon2Config()
	}
	ar, err := newArgon2Algorithm(argonCfg)
	if err != nil {
		return nil, err
	}

	var primary hashAlgorithm
	switch strings.ToLower(strings.TrimSpace(cfg.Algorithm)) {
	case "", AlgorithmBcrypt:
		primary = bc
	case AlgorithmArgon2id:
		primary = ar
	default:
		return nil, fmt.Errorf("security: unsupported hash algorithm %q", cfg.Algorithm)
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &PasswordHasher{
		primary:    primary,
		algorithms: []hashAlgorithm{bc, ar},
		gate:       semaphore.NewWeighted(int64(concurrency)),
		logger:     logger,
	}, nil
}

// Algorithm reports the algorithm used for new hashes.
func (h *PasswordHasher) Algorithm() string {
	return h.primary.name()
}

// Hash derives a salted hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if utf8.RuneCountInString(password) < MinHashInputLength {
		return "", ErrWeakPassword
	}

	if err := h.gate.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer h.gate.Release(1)

	return h.primary.hash(password)
}

// Verify reports whether password matches encoded. Unknown formats, corrupt
// hashes and cancelled contexts all report false; the cause is logged.
func (h *PasswordHasher) Verify(ctx context.Context, password, encoded string) bool {
	if password == "" || encoded == "" {
		return false
	}

	algo := h.lookup(encoded)
	if algo == nil {
		h.logger.Warn("unrecognised password hash format")
		return false
	}

	if err := h.gate.Acquire(ctx, 1); err != nil {
		h.logger.Warn("password verification aborted", zap.Error(err))
		return false
	}
	defer h.gate.Release(1)

	ok, err := algo.compare(password, encoded)
	if err != nil {
		h.logger.Warn("password verification failed",
			zap.String("algorithm", algo.name()),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// NeedsRehash reports whether encoded was produced by a different algorithm than the primary one.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	return !h.primary.matches(encoded)
}

func (h *PasswordHasher) lookup(encoded string) hashAlgorithm {
	for _, algo := range h.algorithms {
		if algo.matches(encoded) {
			return algo
		}
	}
	return nil
}
