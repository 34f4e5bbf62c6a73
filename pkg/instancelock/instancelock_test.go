package instancelock_test

import (
	"path/filepath"
	"testing"

	"github.com/jademcosta/syncbatcher/pkg/instancelock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondAcquireFailsWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")

	first, err := instancelock.Acquire(path)
	require.NoError(t, err, "first acquire should succeed")
	assert.Equal(t, path, first.Path())

	_, err = instancelock.Acquire(path)
	assert.Error(t, err, "second acquire should fail while the lock is held")

	require.NoError(t, first.Release())

	second, err := instancelock.Acquire(path)
	require.NoError(t, err, "acquire should succeed after release")
	assert.NoError(t, second.Release())
}

func TestReleaseOnNilLockIsANoop(t *testing.T) {
	var l *instancelock.Lock
	assert.NoError(t, l.Release())
	assert.Equal(t, "", l.Path())
}
