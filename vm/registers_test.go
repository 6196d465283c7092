package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistersNameDefaultsAndIPBinding(t *testing.T) {
	regs := NewRegisters()
	assert.Equal(t, "a", regs.Name(0))
	assert.Equal(t, "f", regs.Name(5))
	assert.Equal(t, "?", regs.Name(9))

	regs.SetIPIndex(3)
	assert.Equal(t, "ip", regs.Name(3), "ip binding should win over letter naming")
}

func TestRegistersClearPreservesCellsAndLastIP(t *testing.T) {
	regs := NewRegisters()
	require.NoError(t, regs.Set(0, 42))
	_, err := regs.reg(0)
	require.NoError(t, err)
	regs.setLastIP(3)

	regs.Clear()
	assert.False(t, regs.IsRead(0))
	v, err := regs.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
	ip, ok := regs.LastIP()
	assert.True(t, ok)
	assert.Equal(t, 3, ip)
}

func TestRegistersResetZeroesEverything(t *testing.T) {
	regs := NewRegisters()
	require.NoError(t, regs.Set(0, 42))
	regs.setLastIP(3)
	regs.SetIPIndex(2)

	regs.Reset()

	v, err := regs.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
	_, ok := regs.LastIP()
	assert.False(t, ok)
	// ip_index survives a bare reset - only an #ip directive changes it.
	assert.Equal(t, 2, regs.IPIndex())
}

func TestRegistersOutOfRangeFails(t *testing.T) {
	regs := NewRegisters()
	_, err := regs.Get(6)
	assert.ErrorIs(t, err, ErrBadRegister)
	assert.Error(t, regs.Set(-1, 0))
}

func TestRegistersByName(t *testing.T) {
	regs := NewRegisters()
	regs.SetIPIndex(4)

	for name, want := range map[string]int{"a": 0, "b": 1, "c": 2, "d": 3, "e": 4, "f": 5, "ip": 4} {
		got, err := regs.RegisterByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := regs.RegisterByName("z")
	assert.Error(t, err)
}
