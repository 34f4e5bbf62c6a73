package localstorage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jademcosta/syncbatcher/pkg/adapters/manifeststore/localstorage"
	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	conf, err := localstorage.ParseConfig([]byte("path: /tmp/somewhere/manifest"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/somewhere/manifest", conf.Path)
}

func TestNewValidatesDirectory(t *testing.T) {
	_, err := localstorage.New(logger.NewDummy(), &localstorage.Config{})
	assert.Error(t, err, "empty path should not be accepted")

	_, err = localstorage.New(logger.NewDummy(),
		&localstorage.Config{Path: filepath.Join(t.TempDir(), "missing-dir", "manifest")})
	assert.Error(t, err, "should fail when the directory does not exist")
}

func TestReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest")

	sut, err := localstorage.New(logger.NewDummy(), &localstorage.Config{Path: path})
	require.NoError(t, err)

	content, found, err := sut.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, found, "should be absent before the first write")
	assert.Equal(t, "", content)

	err = sut.Write(context.Background(), "|/a.txt")
	require.NoError(t, err)

	content, found, err = sut.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "|/a.txt", content)

	err = sut.Write(context.Background(), "")
	require.NoError(t, err)

	content, found, err = sut.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", content)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should not be left behind")
}
