package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxInput = 72

type bcryptAlgorithm struct {
	cost int
}

func newBcryptAlgorithm(cost int) (*bcryptAlgorithm, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("security: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &bcryptAlgorithm{cost: cost}, nil
}

func (b *bcryptAlgorithm) name() string { return AlgorithmBcrypt }

func (b *bcryptAlgorithm) hash(password string) (string, error) {
	sum, err := bcrypt.GenerateFromPassword(bcryptInput(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: generate hash: %w", err)
	}
	return string(sum), nil
}

func (b *bcryptAlgorithm) matches(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func (b *bcryptAlgorithm) compare(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), bcryptInput(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt: compare: %w", err)
	}
}

// bcryptInput pre-hashes long passphrases so bytes past the bcrypt limit still count.
func bcryptInput(password string) []byte {
	if len(password) <= bcryptMaxInput {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
