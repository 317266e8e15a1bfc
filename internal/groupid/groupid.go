package groupid

import (
	"crypto/rand"
	"fmt"
)

// Crockford's base32 alphabet. The ambiguous letters i, l, o and u are
// excluded so a handle survives being read aloud or retyped.
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// HandleLength is the length of generated group handles.
const HandleLength = 10

// MaxHandleLength caps user-chosen group handles.
const MaxHandleLength = 32

// RandSource interface for dependency injection of randomness
type RandSource interface {
	Intn(n int) int
}

// Generator mints group handles with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a new generator with optional RandSource
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate mints a random shareable group handle
func Generate() string {
	return NewGenerator(nil).Generate()
}

// GenerateWithRandSource mints a group handle using the provided RandSource
func GenerateWithRandSource(randSource RandSource) string {
	return NewGenerator(randSource).Generate()
}

// Generate mints a group handle using the generator's RandSource
func (g *Generator) Generate() string {
	buf := make([]byte, HandleLength)

	if g.randSource != nil {
		// Use provided RandSource for deterministic testing
		for i := range buf {
			buf[i] = alphabet[g.randSource.Intn(len(alphabet))]
		}
		return string(buf)
	}

	// Use crypto/rand for production
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate random bytes: " + err.Error())
	}
	// 32 divides 256, so the modulo introduces no bias.
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}

// Validate checks a user-chosen group handle: lowercase letters, digits and
// dashes, not starting or ending with a dash, at most MaxHandleLength
// characters. Generated handles always pass.
func Validate(handle string) error {
	if handle == "" {
		return fmt.Errorf("group handle must not be empty")
	}
	if len(handle) > MaxHandleLength {
		return fmt.Errorf("group handle must be at most %d characters, got %d", MaxHandleLength, len(handle))
	}

	for i := 0; i < len(handle); i++ {
		ch := handle[i]
		switch {
		case ch >= 'a' && ch <= 'z':
		case ch >= '0' && ch <= '9':
		case ch == '-':
			if i == 0 || i == len(handle)-1 {
				return fmt.Errorf("group handle must not start or end with a dash")
			}
		default:
			return fmt.Errorf("invalid character %q at position %d", ch, i)
		}
	}

	return nil
}
