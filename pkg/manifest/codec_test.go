package manifest_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jademcosta/syncbatcher/pkg/manifest"
	"github.com/stretchr/testify/assert"
)

func mustTokens(t *testing.T, keys ...string) []manifest.Token {
	t.Helper()
	tokens := make([]manifest.Token, 0, len(keys))
	for _, k := range keys {
		tok, err := manifest.NewToken(k)
		assert.NoError(t, err, "key %q should be a valid token", k)
		tokens = append(tokens, tok)
	}
	return tokens
}

func TestNewToken(t *testing.T) {
	tok, err := manifest.NewToken("a.txt")
	assert.NoError(t, err)
	assert.Equal(t, manifest.Token("/a.txt"), tok)
	assert.Equal(t, "a.txt", tok.Key())
	assert.Equal(t, 7, tok.EncodedLen(), "delimiter plus '/a.txt'")

	_, err = manifest.NewToken("")
	assert.ErrorIs(t, err, manifest.ErrEmptyKey)

	_, err = manifest.NewToken("weird|key")
	assert.ErrorIs(t, err, manifest.ErrKeyHasDelimiter)
}

func TestDecodeStripsLeadingByte(t *testing.T) {
	codec := manifest.NewCodec(1000)

	assert.Empty(t, codec.Decode(""), "empty manifest has no tokens")
	assert.Empty(t, codec.Decode("|"), "a lone leading byte has no tokens")
	assert.Equal(t, []manifest.Token{"/a.txt"}, codec.Decode("|/a.txt"))
	assert.Equal(t, []manifest.Token{"/a.txt", "/dir/b.txt"}, codec.Decode("|/a.txt|/dir/b.txt"))
	assert.Equal(t, []manifest.Token{"/a.txt", "/b"}, codec.Decode("|/a.txt||/b"), "empty segments are ignored")
}

func TestDecodeKeepsDuplicates(t *testing.T) {
	codec := manifest.NewCodec(1000)
	assert.Equal(t, []manifest.Token{"/a", "/a", "/a"}, codec.Decode("|/a|/a|/a"))
}

func TestEncode(t *testing.T) {
	codec := manifest.NewCodec(1000)

	raw, err := codec.Encode(nil)
	assert.NoError(t, err)
	assert.Equal(t, "", raw, "no tokens should encode to the empty string")

	raw, err = codec.Encode(mustTokens(t, "a.txt", "dir/b.txt"))
	assert.NoError(t, err)
	assert.Equal(t, "|/a.txt|/dir/b.txt", raw)
}

func TestEncodeEnforcesHardLimit(t *testing.T) {
	codec := manifest.NewCodec(14)

	raw, err := codec.Encode(mustTokens(t, "a.txt", "b.txt"))
	assert.NoError(t, err, "14 bytes should fit a limit of 14")
	assert.Len(t, raw, 14)

	_, err = codec.Encode(mustTokens(t, "a.txt", "b.txt", "c"))
	assert.True(t, errors.Is(err, manifest.ErrHardLimitExceeded), "should fail when exceeding the hard limit")
}

func TestDecodeThenEncodeIsIdempotent(t *testing.T) {
	codec := manifest.NewCodec(409600)

	manifests := []string{
		"",
		"|/a.txt",
		"|/a.txt|/a.txt|/b/c/d.parquet",
		"|/" + strings.Repeat("x", 1000) + "|/y",
	}

	for _, original := range manifests {
		raw, err := codec.Encode(codec.Decode(original))
		assert.NoError(t, err)
		assert.Equal(t, original, raw, "decode+encode with no new tokens should not change the manifest")
	}
}

func TestAppendingNKeysYieldsNTokens(t *testing.T) {
	codec := manifest.NewCodec(409600)

	for _, n := range []int{1, 2, 10, 500} {
		keys := make([]string, 0, n)
		for i := 0; i < n; i++ {
			keys = append(keys, "same-key.txt")
		}

		tokens := append(codec.Decode(""), mustTokens(t, keys...)...)
		raw, err := codec.Encode(tokens)
		assert.NoError(t, err)
		assert.Len(t, codec.Decode(raw), n, "duplicates should be counted")
	}
}

func TestFilterPattern(t *testing.T) {
	codec := manifest.NewCodec(1000)

	assert.Equal(t, "", manifest.FilterPattern(nil))
	assert.Equal(t, "/a.txt", manifest.FilterPattern(codec.Decode("|/a.txt")))
	assert.Equal(t, "/a.txt|/b.txt", manifest.FilterPattern(codec.Decode("|/a.txt|/b.txt")))
}

func TestLength(t *testing.T) {
	codec := manifest.NewCodec(1000)
	assert.Equal(t, 0, codec.Length(""))
	assert.Equal(t, 7, codec.Length("|/a.txt"))
}

func TestNewCodecPanicsOnInvalidLimit(t *testing.T) {
	assert.Panics(t, func() { manifest.NewCodec(0) })
	assert.Panics(t, func() { manifest.NewCodec(-1) })
}
