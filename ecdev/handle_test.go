package ecdev

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/musikid/fancy"
	"github.com/musikid/fancy/ecram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDevice is a testify mock of the EC device file. It records the highest
// number of operations observed in flight at once.
type MockDevice struct {
	mock.Mock
	concurrentOps int64
	maxConcurrent int64
}

func (m *MockDevice) enter() {
	n := atomic.AddInt64(&m.concurrentOps, 1)
	for {
		max := atomic.LoadInt64(&m.maxConcurrent)
		if n <= max || atomic.CompareAndSwapInt64(&m.maxConcurrent, max, n) {
			return
		}
	}
}

func (m *MockDevice) leave() {
	atomic.AddInt64(&m.concurrentOps, -1)
}

func (m *MockDevice) Seek(offset int64, whence int) (int64, error) {
	m.enter()
	defer m.leave()
	args := m.Called(offset, whence)
	// widen the window in which an unguarded caller could interleave
	time.Sleep(time.Millisecond)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.enter()
	defer m.leave()
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockDevice) Read(p []byte) (int, error) {
	m.enter()
	defer m.leave()
	args := m.Called(p)
	if data, ok := args.Get(0).([]byte); ok {
		copy(p, data)
	}
	return args.Int(1), args.Error(2)
}

func TestHandle_WriteReadRegister(t *testing.T) {
	bank := ecram.New()
	h := New(bank)
	ctx := context.Background()

	require.NoError(t, h.WriteRegister(ctx, 0x10, []byte{0xFF, 0x01}))
	assert.Equal(t, []byte{0xFF, 0x01}, bank.Bytes()[0x10:0x12])

	buf := make([]byte, 2)
	require.NoError(t, h.ReadRegister(ctx, 0x10, buf))
	assert.Equal(t, []byte{0xFF, 0x01}, buf)
	assert.Equal(t, Either, h.Mode())
	assert.NoError(t, h.Close())
}

func TestHandle_OutOfRange(t *testing.T) {
	h := New(ecram.New())
	err := h.WriteRegister(context.Background(), 0xFF, []byte{0x01, 0x02})
	var ioErr *fancy.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "write", ioErr.Op)
	assert.ErrorIs(t, err, fancy.ErrOffsetOutOfRange)

	assert.ErrorIs(t, h.ReadRegister(context.Background(), 0xFF, make([]byte, 2)), fancy.ErrOffsetOutOfRange)
	assert.NoError(t, h.WriteRegister(context.Background(), 0xFF, []byte{0x01}))
}

func TestHandle_IOErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*MockDevice)
		op    string
	}{
		{
			name: "seek fails",
			setup: func(dev *MockDevice) {
				dev.On("Seek", int64(0x93), io.SeekStart).Return(int64(0), os.ErrPermission).Once()
			},
			op: "seek",
		},
		{
			name: "write fails",
			setup: func(dev *MockDevice) {
				dev.On("Seek", int64(0x93), io.SeekStart).Return(int64(0x93), nil).Once()
				dev.On("Write", []byte{0x14}).Return(0, os.ErrPermission).Once()
			},
			op: "write",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := new(MockDevice)
			tt.setup(dev)
			err := New(dev).WriteRegister(context.Background(), 0x93, []byte{0x14})
			var ioErr *fancy.IOError
			require.True(t, errors.As(err, &ioErr))
			assert.Equal(t, tt.op, ioErr.Op)
			assert.Equal(t, byte(0x93), ioErr.Offset)
			assert.ErrorIs(t, err, os.ErrPermission)
			dev.AssertExpectations(t)
		})
	}
}

func TestHandle_SerializesAccess(t *testing.T) {
	dev := new(MockDevice)
	dev.On("Seek", mock.Anything, io.SeekStart).Return(int64(0), nil)
	dev.On("Write", mock.Anything).Return(2, nil)
	dev.On("Read", mock.Anything).Return([]byte{0x00}, 1, nil)
	h := New(dev)
	ctx := context.Background()

	const numOps = 8
	var wg sync.WaitGroup
	wg.Add(2 * numOps)
	for i := 0; i < numOps; i++ {
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, h.WriteRegister(ctx, byte(i), []byte{0x34, 0x12}))
		}(i)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, h.ReadRegister(ctx, byte(i), make([]byte, 1)))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&dev.maxConcurrent), "seek/write pairs must not interleave")
}
