package shortener

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the set of characters short codes are drawn from.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	DefaultCodeLength  = 6
	MinCodeLength      = 6
	MaxCodeLength      = 8
	DefaultMaxAttempts = 5
)

// CodeGenerator generates candidate short codes.
type CodeGenerator func() string

// NewCodeGenerator returns a generator of alphanumeric codes backed by crypto/rand.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length < MinCodeLength || length > MaxCodeLength {
		return nil, fmt.Errorf("code length %d outside [%d, %d]", length, MinCodeLength, MaxCodeLength)
	}

	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create nanoid generator: %w", err)
	}

	return CodeGenerator(gen), nil
}
