package ecram

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBank_SeekWriteRead(t *testing.T) {
	bank := New()
	pos, err := bank.Seek(0x10, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0x10), pos)

	n, err := bank.Write([]byte{0xFF, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = bank.Seek(-2, io.SeekCurrent)
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = io.ReadFull(bank, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00}, buf)
	assert.Equal(t, byte(0xFF), bank.Bytes()[0x10])
}

func TestBank_Bounds(t *testing.T) {
	tests := []struct {
		name   string
		offset int64
		data   []byte
		n      int
		err    error
	}{
		{"last register", 0xFF, []byte{0x01}, 1, nil},
		{"word across end", 0xFF, []byte{0x01, 0x02}, 1, io.ErrShortWrite},
		{"past end", 0x100, []byte{0x01}, 0, io.ErrShortWrite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := New()
			_, err := bank.Seek(tt.offset, io.SeekStart)
			require.NoError(t, err)
			n, err := bank.Write(tt.data)
			assert.Equal(t, tt.n, n)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBank_SeekErrors(t *testing.T) {
	bank := New()
	_, err := bank.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, ErrNegativePosition)
	_, err = bank.Seek(0, 42)
	assert.ErrorIs(t, err, ErrInvalidWhence)
	pos, err := bank.Seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(0xFF), pos)
}

func TestBank_ReadEOF(t *testing.T) {
	bank := NewFrom([]byte{0xAA})
	_, err := bank.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	_, err = bank.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, byte(0xAA), bank.Bytes()[0])
}

func TestBank_Zero(t *testing.T) {
	bank := NewFrom([]byte{1, 2, 3})
	bank.Zero()
	assert.Equal(t, make([]byte, 256), bank.Bytes())
}
