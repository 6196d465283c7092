package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpCodeDecodeRoundTrip(t *testing.T) {
	all := []OpCode{Addr, Addi, Mulr, Muli, Banr, Bani, Borr, Bori, Setr, Seti, Gtir, Gtri, Gtrr, Eqir, Eqri, Eqrr}
	for _, op := range all {
		decoded, ok := DecodeOpCode(op.String())
		require.True(t, ok, "decode(%s) should succeed", op)
		assert.Equal(t, op, decoded)
	}
}

func TestDecodeOpCodeRejectsUnknown(t *testing.T) {
	_, ok := DecodeOpCode("nope")
	assert.False(t, ok)
}

func TestOpCodeApplyArithmetic(t *testing.T) {
	regs := NewRegisters()
	require.NoError(t, regs.Set(0, 10))
	require.NoError(t, regs.Set(1, 7))

	require.NoError(t, Addr.Apply(regs, [2]int64{0, 1}, 2))
	v, err := regs.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(17), v)
	assert.True(t, regs.IsRead(0))
	assert.True(t, regs.IsRead(1))
	assert.True(t, regs.IsWritten(2))
	assert.False(t, regs.IsRead(3))
}

func TestOpCodeApplyImmediateDoesNotTrackReads(t *testing.T) {
	regs := NewRegisters()
	require.NoError(t, Seti.Apply(regs, [2]int64{5, 0}, 0))
	v, err := regs.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
	assert.False(t, regs.IsRead(0))
}

func TestOpCodeApplyComparisons(t *testing.T) {
	regs := NewRegisters()
	require.NoError(t, regs.Set(0, 5))
	require.NoError(t, regs.Set(1, 3))

	require.NoError(t, Gtrr.Apply(regs, [2]int64{0, 1}, 2))
	v, err := regs.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	require.NoError(t, Eqrr.Apply(regs, [2]int64{0, 1}, 2))
	v, err = regs.Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestOpCodeApplyBadRegister(t *testing.T) {
	regs := NewRegisters()
	err := Addr.Apply(regs, [2]int64{0, 99}, 0)
	assert.ErrorIs(t, err, ErrBadRegister)
}
