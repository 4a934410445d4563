package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RunsOnContentChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "schema.prisma")
	require.NoError(t, os.WriteFile(file, []byte("model A { id Int @id }"), 0644))

	var calls atomic.Int32
	w, err := NewWatcher(file, func() error {
		calls.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, os.WriteFile(file, []byte("model B { id Int @id }"), 0644))
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_Changed(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "schema.prisma")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0644))

	w, err := NewWatcher(file, func() error { return nil })
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.changed())
	assert.False(t, w.changed(), "same content")

	require.NoError(t, os.WriteFile(file, []byte("b"), 0644))
	assert.True(t, w.changed())
}

func TestWatcher_StopTwice(t *testing.T) {
	file := filepath.Join(t.TempDir(), "schema.prisma")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	w, err := NewWatcher(file, func() error { return nil })
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
