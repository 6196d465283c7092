package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHookSimpleForms(t *testing.T) {
	d := NewDevice()

	hook, err := ParseHook("read(a)", d)
	require.NoError(t, err)
	assert.Equal(t, KindRead, hook.Kind)
	assert.Equal(t, 0, hook.Register)

	hook, err = ParseHook("write(c)", d)
	require.NoError(t, err)
	assert.Equal(t, KindWrite, hook.Kind)
	assert.Equal(t, 2, hook.Register)

	hook, err = ParseHook("unique(f)", d)
	require.NoError(t, err)
	assert.Equal(t, KindUnique, hook.Kind)
	assert.Equal(t, 5, hook.Register)

	hook, err = ParseHook("line(42)", d)
	require.NoError(t, err)
	assert.Equal(t, KindLine, hook.Kind)
	assert.Equal(t, 42, hook.Line)
}

func TestParseHookComparisonOps(t *testing.T) {
	d := NewDevice()

	cases := map[string]Op{
		"gt(a, 5)":  OpGt,
		"gte(a, 5)": OpGte,
		"lt(a, 5)":  OpLt,
		"lte(a, 5)": OpLte,
		"eq(a, 5)":  OpEq,
	}
	for expr, op := range cases {
		hook, err := ParseHook(expr, d)
		require.NoError(t, err, expr)
		assert.Equal(t, KindOp, hook.Kind, expr)
		assert.Equal(t, op, hook.Op, expr)
		assert.Equal(t, 0, hook.Register, expr)
		assert.Equal(t, int64(5), hook.Value, expr)
	}
}

func TestParseHookResolvesIPRegisterByCurrentBinding(t *testing.T) {
	d := NewDevice()
	d.Registers().SetIPIndex(4)

	hook, err := ParseHook("gt(ip, 100)", d)
	require.NoError(t, err)
	assert.Equal(t, KindOp, hook.Kind)
	assert.Equal(t, OpGt, hook.Op)
	assert.Equal(t, 4, hook.Register)
	assert.Equal(t, int64(100), hook.Value)
}

func TestParseHookNot(t *testing.T) {
	d := NewDevice()
	hook, err := ParseHook("not(read(a))", d)
	require.NoError(t, err)
	assert.Equal(t, KindNot, hook.Kind)
	require.NotNil(t, hook.Inner)
	assert.Equal(t, KindRead, hook.Inner.Kind)
	assert.Equal(t, 0, hook.Inner.Register)
}

// Scenario 6: parse("all(line(28), not(read(a)))") yields
// All[Line(28), Not(Read(0))].
func TestParseHookAllNested(t *testing.T) {
	d := NewDevice()
	hook, err := ParseHook("all(line(28), not(read(a)))", d)
	require.NoError(t, err)

	require.Equal(t, KindAll, hook.Kind)
	require.Len(t, hook.All, 2)

	assert.Equal(t, KindLine, hook.All[0].Kind)
	assert.Equal(t, 28, hook.All[0].Line)

	assert.Equal(t, KindNot, hook.All[1].Kind)
	require.NotNil(t, hook.All[1].Inner)
	assert.Equal(t, KindRead, hook.All[1].Inner.Kind)
	assert.Equal(t, 0, hook.All[1].Inner.Register)
}

func TestParseHookAllWithMoreThanTwoChildren(t *testing.T) {
	d := NewDevice()
	hook, err := ParseHook("all(read(a), write(b), line(3))", d)
	require.NoError(t, err)
	require.Len(t, hook.All, 3)
	assert.Equal(t, KindRead, hook.All[0].Kind)
	assert.Equal(t, KindWrite, hook.All[1].Kind)
	assert.Equal(t, KindLine, hook.All[2].Kind)
}

func TestParseHookRoundTripsThroughDisplay(t *testing.T) {
	d := NewDevice()
	d.Registers().SetIPIndex(4)

	hook, err := ParseHook("all(line(28), not(read(a)))", d)
	require.NoError(t, err)
	assert.Equal(t, "all(line(28), not(read(a)))", hook.Display(d))

	hook, err = ParseHook("gt(ip, 100)", d)
	require.NoError(t, err)
	assert.Equal(t, "gt(ip, 100)", hook.Display(d))
}

func TestParseHookUnknownFunctionErrors(t *testing.T) {
	d := NewDevice()
	_, err := ParseHook("frobnicate(a)", d)
	assert.ErrorIs(t, err, ErrBadHook)
}

func TestParseHookUnknownRegisterErrors(t *testing.T) {
	d := NewDevice()
	_, err := ParseHook("read(z)", d)
	assert.ErrorIs(t, err, ErrBadHook)
}

func TestParseHookMalformedExpressionsError(t *testing.T) {
	d := NewDevice()

	cases := []string{
		"read(a",
		"read a)",
		"gt(a 5)",
		"",
		"all(read(a)",
		"not()",
	}
	for _, expr := range cases {
		_, err := ParseHook(expr, d)
		assert.Error(t, err, expr)
	}
}
