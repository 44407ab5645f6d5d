package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Prefix  = "$argon2id$"
	argon2Version = "v=19"
)

var (
	errInvalidHashFormat = errors.New("argon2: invalid encoded hash format")
	errInvalidConfig     = errors.New("argon2: invalid configuration")
)

// Argon2Config defines tunable parameters for Argon2id password hashing.
type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Config returns the default Argon2id parameters.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (c Argon2Config) validate() error {
	if c.Memory < 8*1024 {
		return fmt.Errorf("%w: memory must be at least 8192", errInvalidConfig)
	}
	if c.Iterations == 0 {
		return fmt.Errorf("%w: iterations must be greater than zero", errInvalidConfig)
	}
	if c.Parallelism == 0 {
		return fmt.Errorf("%w: parallelism must be greater than zero", errInvalidConfig)
	}
	if c.SaltLength < 8 {
		return fmt.Errorf("%w: salt length must be at least 8 bytes", errInvalidConfig)
	}
	if c.KeyLength < 16 {
		return fmt.Errorf("%w: key length must be at least 16 bytes", errInvalidConfig)
	}
	return nil
}

type argon2Algorithm struct {
	cfg Argon2Config
}

func newArgon2Algorithm(cfg Argon2Config) (*argon2Algorithm, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &argon2Algorithm{cfg: cfg}, nil
}

func (a *argon2Algorithm) name() string { return AlgorithmArgon2id }

// hash encodes as $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>.
func (a *argon2Algorithm) hash(password string) (string, error) {
	salt := make([]byte, a.cfg.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2: generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, a.cfg.Iterations, a.cfg.Memory, a.cfg.Parallelism, a.cfg.KeyLength)

	return fmt.Sprintf("%s%s$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2Version,
		a.cfg.Memory, a.cfg.Iterations, a.cfg.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

func (a *argon2Algorithm) matches(encoded string) bool {
	return strings.HasPrefix(encoded, argon2Prefix)
}

func (a *argon2Algorithm) compare(password, encoded string) (bool, error) {
	params, salt, expected, err := decodeArgon2Hash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

func decodeArgon2Hash(encoded string) (Argon2Config, []byte, []byte, error) {
	// "", "argon2id", "v=19", params, salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Config{}, nil, nil, errInvalidHashFormat
	}
	if parts[2] != argon2Version {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: unsupported version %q", parts[2])
	}

	cfg, err := parseArgon2Params(parts[3])
	if err != nil {
		return Argon2Config{}, nil, nil, err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2Config{}, nil, nil, fmt.Errorf("argon2: decode hash: %w", err)
	}

	cfg.SaltLength = uint32(len(salt))
	cfg.KeyLength = uint32(len(hash))
	if err := cfg.validate(); err != nil {
		return Argon2Config{}, nil, nil, err
	}

	return cfg, salt, hash, nil
}

func parseArgon2Params(segment string) (Argon2Config, error) {
	var cfg Argon2Config

	entries := strings.Split(segment, ",")
	if len(entries) != 3 {
		return cfg, errInvalidHashFormat
	}

	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return cfg, errInvalidHashFormat
		}

		var (
			v   uint64
			err error
		)
		switch key {
		case "m":
			v, err = strconv.ParseUint(value, 10, 32)
			cfg.Memory = uint32(v)
		case "t":
			v, err = strconv.ParseUint(value, 10, 32)
			cfg.Iterations = uint32(v)
		case "p":
			v, err = strconv.ParseUint(value, 10, 8)
			cfg.Parallelism = uint8(v)
		default:
			return cfg, errInvalidHashFormat
		}
		if err != nil {
			return cfg, fmt.Errorf("argon2: parse %s: %w", key, err)
		}
	}

	return cfg, nil
}
