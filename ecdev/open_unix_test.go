//go:build unix

package ecdev

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/musikid/fancy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPath_ExclusiveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io")
	require.NoError(t, os.WriteFile(path, make([]byte, fancy.RegisterSpace), 0o600))

	first, err := openPath(path, ECSys)
	require.NoError(t, err)
	assert.Equal(t, ECSys, first.Mode())
	assert.Equal(t, path, first.Path())

	_, err = openPath(path, ECSys)
	assert.ErrorIs(t, err, ErrDeviceBusy)

	require.NoError(t, first.WriteRegister(context.Background(), 0x20, []byte{0x7F}))
	require.NoError(t, first.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte(0x7F), data[0x20])

	second, err := openPath(path, ECSys)
	require.NoError(t, err)
	assert.NoError(t, second.Close())
}

func TestWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "io")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	assert.NoError(t, Writable(path))
	assert.Error(t, Writable(filepath.Join(t.TempDir(), "missing")))
}
