// Package token issues the unguessable response tokens that gate client access to a quote.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

const (
	// ByteLength is the amount of entropy per token (256 bits).
	ByteLength = 32

	// EncodedLength is the length of a token in unpadded base64url.
	EncodedLength = 43
)

var encoding = base64.RawURLEncoding

// Generator produces URL-safe tokens from a cryptographically secure source.
type Generator struct {
	source io.Reader
}

// NewGenerator returns a generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{source: rand.Reader}
}

// NewGeneratorWithSource returns a generator reading from r. Tests use it to
// force collisions; production code must use NewGenerator.
func NewGeneratorWithSource(r io.Reader) *Generator {
	return &Generator{source: r}
}

// Generate implements ports.TokenGenerator.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, ByteLength)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", fmt.Errorf("reading token entropy: %w", err)
	}

	return encoding.EncodeToString(buf), nil
}

// Valid reports whether s has the shape of an issued token. It says nothing
// about whether the token exists.
func Valid(s string) bool {
	if len(s) != EncodedLength {
		return false
	}

	for i := range len(s) {
		c := s[i]
		if !(c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}

	return true
}
