package wait

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilImmediate(t *testing.T) {
	err := Until(func() (bool, error) { return true, nil })
	assert.NoError(t, err)
}

func TestUntilEventually(t *testing.T) {
	calls := 0
	err := Until(func() (bool, error) {
		calls++
		return calls >= 3, nil
	}, DefaultOptions().WithInterval(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestUntilTimeout(t *testing.T) {
	err := Until(func() (bool, error) { return false, nil },
		DefaultOptions().WithTimeout(50*time.Millisecond).WithInterval(5*time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestForTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.NoError(t, ForTCP(ln.Addr().String()))
}

func TestForTCPUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = ForTCP(addr, DefaultOptions().WithTimeout(50*time.Millisecond).WithInterval(5*time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout)
}
