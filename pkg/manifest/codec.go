// Package manifest encodes and decodes the filter manifest: the bounded text
// blob holding one path-filter token per pending object key.
//
// A stored manifest is every token prefixed by the delimiter, e.g.
// "|/a.txt|/dir/b.txt". The first byte is a leading artifact and is dropped on
// decode. The remainder, "/a.txt|/dir/b.txt", is the filter pattern the
// transfer system receives.
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Delimiter   = "|"
	TokenPrefix = "/"
)

var (
	ErrHardLimitExceeded = errors.New("manifest would exceed the hard limit")
	ErrEmptyKey          = errors.New("object key is empty")
	ErrKeyHasDelimiter   = errors.New("object key contains the filter delimiter")
)

// Token is one filter entry, always in the form "/<key>".
type Token string

func NewToken(key string) (Token, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	if strings.Contains(key, Delimiter) {
		return "", ErrKeyHasDelimiter
	}

	return Token(TokenPrefix + key), nil
}

func (t Token) Key() string {
	return strings.TrimPrefix(string(t), TokenPrefix)
}

// EncodedLen is how many bytes the token adds to a stored manifest.
func (t Token) EncodedLen() int {
	return len(Delimiter) + len(t)
}

type Codec struct {
	hardLimit int
}

func NewCodec(hardLimit int) *Codec {
	if hardLimit <= 0 {
		panic(fmt.Sprintf("manifest hard limit should be > 0, got %d", hardLimit))
	}
	return &Codec{hardLimit: hardLimit}
}

func (c *Codec) HardLimit() int {
	return c.hardLimit
}

func (c *Codec) Decode(raw string) []Token {
	if len(raw) <= 1 {
		return []Token{}
	}

	parts := strings.Split(raw[1:], Delimiter)
	tokens := make([]Token, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		tokens = append(tokens, Token(part))
	}

	return tokens
}

func (c *Codec) Encode(tokens []Token) (string, error) {
	if len(tokens) == 0 {
		return "", nil
	}

	size := 0
	for _, t := range tokens {
		size += t.EncodedLen()
	}

	if size > c.hardLimit {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", ErrHardLimitExceeded, size, c.hardLimit)
	}

	var sb strings.Builder
	sb.Grow(size)
	for _, t := range tokens {
		sb.WriteString(Delimiter)
		sb.WriteString(string(t))
	}

	return sb.String(), nil
}

func (c *Codec) Length(raw string) int {
	return len(raw)
}

func FilterPattern(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, Delimiter)
}
