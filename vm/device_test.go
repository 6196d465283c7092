package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadSource(t *testing.T, source string) *Device {
	t.Helper()
	d := NewDevice()
	require.NoError(t, d.Load(strings.NewReader(strings.TrimLeft(source, "\n"))))
	return d
}

// Scenario 1: trivial set-and-increment.
func TestDeviceSetAndIncrement(t *testing.T) {
	d := loadSource(t, `
#ip 0
seti 5 0 0
`)

	require.NoError(t, d.Step())
	assert.Equal(t, [numRegisters]int64{6, 0, 0, 0, 0, 0}, d.Registers().Cells())
	ip, ok := d.Registers().LastIP()
	require.True(t, ok)
	assert.Equal(t, 0, ip)
	assert.EqualValues(t, 1, d.StepCount())
	assert.True(t, d.HasExecuted(0))
	assert.False(t, d.Halted())

	require.NoError(t, d.Step())
	assert.True(t, d.Halted())
	assert.EqualValues(t, 2, d.StepCount())

	assert.ErrorIs(t, d.Step(), ErrProgramHalted)
	assert.EqualValues(t, 2, d.StepCount(), "stepping a halted device must not advance count further")
}

// Scenario 2: addr with IP bound to register 5.
func TestDeviceAddrWithIPBound(t *testing.T) {
	d := loadSource(t, `
#ip 5
seti 3 0 0
addi 0 1 0
`)

	require.NoError(t, d.Step())
	require.NoError(t, d.Step())

	cells := d.Registers().Cells()
	assert.Equal(t, int64(4), cells[0])
	assert.Equal(t, int64(2), cells[5])
	ip, ok := d.Registers().LastIP()
	require.True(t, ok)
	assert.Equal(t, 1, ip)
	assert.False(t, d.Halted())

	require.NoError(t, d.Step())
	assert.True(t, d.Halted())
	assert.EqualValues(t, 3, d.StepCount())
}

// Scenario 3: read/write tracking.
func TestDeviceReadWriteTracking(t *testing.T) {
	// ip is bound to f so that setting a does not move the instruction
	// pointer off the one-line program.
	d := loadSource(t, "#ip 5\naddr 0 1 2")
	require.NoError(t, d.Registers().Set(0, 10))
	require.NoError(t, d.Registers().Set(1, 7))

	require.NoError(t, d.Step())

	v, err := d.Registers().Get(2)
	require.NoError(t, err)
	assert.Equal(t, int64(17), v)
	assert.True(t, d.Registers().IsRead(0))
	assert.True(t, d.Registers().IsRead(1))
	assert.True(t, d.Registers().IsWritten(2))
	assert.False(t, d.Registers().IsRead(3))
}

func TestDeviceLoadPreservesIPIndexAbsentDirective(t *testing.T) {
	d := loadSource(t, "#ip 4\naddr 0 1 2")
	assert.Equal(t, 4, d.Registers().IPIndex())

	require.NoError(t, d.Load(strings.NewReader("addr 0 1 2")))
	assert.Equal(t, 4, d.Registers().IPIndex(), "ip_index should survive a load with no #ip directive")
}

func TestDeviceResetKeepsProgramAndIPIndex(t *testing.T) {
	d := loadSource(t, "#ip 3\nseti 5 0 0")
	require.NoError(t, d.Step())

	d.Reset()
	assert.Equal(t, 3, d.Registers().IPIndex())
	assert.False(t, d.Halted())
	assert.EqualValues(t, 0, d.StepCount())
	assert.False(t, d.HasExecuted(0))
	assert.Equal(t, int64(0), d.Registers().Cells()[0])
	assert.Len(t, d.Instructions(), 1)
}

func TestDeviceAcceptsLateIPDirectiveLastOneWins(t *testing.T) {
	d := NewDevice()
	require.NoError(t, d.Load(strings.NewReader("#ip 0\naddr 0 1 2\n#ip 3\n")))
	assert.Equal(t, 3, d.Registers().IPIndex(), "a later #ip directive overrides an earlier one")
	assert.Len(t, d.Instructions(), 1)
}
