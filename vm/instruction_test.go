package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInstruction(t *testing.T) {
	inst, err := ParseInstruction("addr 0 1 2")
	require.NoError(t, err)
	assert.Equal(t, Addr, inst.Op)
	assert.Equal(t, [2]int64{0, 1}, inst.Inputs)
	assert.Equal(t, int64(2), inst.Output)
}

func TestParseInstructionRejectsWrongArity(t *testing.T) {
	_, err := ParseInstruction("addr 0 1")
	assert.ErrorIs(t, err, ErrBadInstruction)
}

func TestParseInstructionRejectsUnknownOpcode(t *testing.T) {
	_, err := ParseInstruction("frobnicate 0 1 2")
	assert.ErrorIs(t, err, ErrBadInstruction)
}

func TestInstructionStringRoundTrip(t *testing.T) {
	inst, err := ParseInstruction("muli 3 4 5")
	require.NoError(t, err)
	assert.Equal(t, "muli 3 4 5", inst.String())
}

func TestInstructionHumanStringUsesRegisterNames(t *testing.T) {
	regs := NewRegisters()
	regs.SetIPIndex(5)

	inst, err := ParseInstruction("addi 0 1 0")
	require.NoError(t, err)
	assert.Equal(t, "a = a + 1", inst.HumanString(regs))

	inst, err = ParseInstruction("seti 3 0 5")
	require.NoError(t, err)
	assert.Equal(t, "ip = 3", inst.HumanString(regs))
}

func TestParseIPDirective(t *testing.T) {
	n, ok := parseIPDirective("#ip 5")
	require.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = parseIPDirective("addr 0 1 2")
	assert.False(t, ok)
}
