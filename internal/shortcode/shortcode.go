// Package shortcode generates and validates the opaque codes that identify
// shortened URLs.
package shortcode

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// DefaultAlphabet holds the 62 alphanumeric symbols codes are drawn from.
	DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the number of symbols in a generated code.
	DefaultLength = 6

	maxAlphabetSize = 255
)

var (
	ErrInvalidLength   = errors.New("short code length must be positive")
	ErrInvalidAlphabet = errors.New("alphabet must contain between 2 and 255 unique symbols")
)

// Generator draws random short codes of a fixed length from a fixed alphabet.
// It is safe for concurrent use.
type Generator struct {
	alphabet string
	length   int
}

// New returns a Generator for the given alphabet and code length.
func New(alphabet string, length int) (*Generator, error) {
	const op = "shortcode.New"

	if length < 1 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidLength)
	}

	n := utf8.RuneCountInString(alphabet)
	if n < 2 || n > maxAlphabetSize || hasDuplicates(alphabet) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAlphabet)
	}

	return &Generator{
		alphabet: alphabet,
		length:   length,
	}, nil
}

// Generate returns a candidate code. Every symbol is sampled independently
// and uniformly from the alphabet using crypto/rand.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	code, err := gonanoid.Generate(g.alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// Valid reports whether code could have been produced by g.
func (g *Generator) Valid(code string) bool {
	if utf8.RuneCountInString(code) != g.length {
		return false
	}

	for _, r := range code {
		if !strings.ContainsRune(g.alphabet, r) {
			return false
		}
	}

	return true
}

// Length returns the number of symbols in generated codes.
func (g *Generator) Length() int {
	return g.length
}

func hasDuplicates(s string) bool {
	seen := make(map[rune]struct{}, len(s))
	for _, r := range s {
		if _, ok := seen[r]; ok {
			return true
		}
		seen[r] = struct{}{}
	}
	return false
}
