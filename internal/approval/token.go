package approval

import (
	"crypto/rand"
	"fmt"
)

// TokenLength is the number of characters in a generated token. 40 characters
// over a 62-symbol alphabet carry about 238 bits of entropy.
const TokenLength = 40

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenGenerator produces approval tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// TokenFunc adapts a function to TokenGenerator.
type TokenFunc func() (string, error)

// Generate implements TokenGenerator.
func (f TokenFunc) Generate() (string, error) { return f() }

// RandomTokens draws tokens from crypto/rand.
type RandomTokens struct{}

// Generate returns a TokenLength mixed-case alphanumeric token. Bytes at or
// above the largest multiple of the alphabet size are discarded so every
// symbol is equally likely.
func (RandomTokens) Generate() (string, error) {
	const limit = 256 - 256%len(tokenAlphabet)

	out := make([]byte, 0, TokenLength)
	buf := make([]byte, TokenLength*2)
	for len(out) < TokenLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == TokenLength {
				break
			}
		}
	}
	return string(out), nil
}
