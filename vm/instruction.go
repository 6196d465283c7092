package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadInstruction is returned when a program line cannot be decoded.
var ErrBadInstruction = errors.New("bad instruction")

// Instruction is one decoded line of an elfcode program: an opcode plus
// the raw a/b/output operands exactly as they appeared in the source
// line. Whether a and b are register indices or immediates depends on
// the opcode (OpCode.Apply decides).
type Instruction struct {
	Op     OpCode
	Inputs [2]int64
	Output int64
}

// String renders the instruction in its raw source form, e.g. "addr 0 1 2".
func (i Instruction) String() string {
	return fmt.Sprintf("%s %d %d %d", i.Op, i.Inputs[0], i.Inputs[1], i.Output)
}

// HumanString renders the instruction using register names and an infix
// operator, e.g. "d = a + b", resolving register operands through regs'
// naming so the ip register shows as "ip" rather than a bare index. This
// does not touch regs' read/write tracking sets - it is a display-only
// rendering, same as the teacher's formatInstructionStr.
func (i Instruction) HumanString(regs *Registers) string {
	lhs := i.operandString(regs, 0)
	rhs := i.operandString(regs, 1)
	out := regs.Name(int(i.Output))

	switch i.Op {
	case Setr:
		return fmt.Sprintf("%s = %s", out, lhs)
	case Seti:
		return fmt.Sprintf("%s = %d", out, i.Inputs[0])
	default:
		return fmt.Sprintf("%s = %s %s %s", out, lhs, i.Op.Infix(), rhs)
	}
}

// operandString renders operand slot n (0 or 1) as a register name or a
// literal immediate, depending on whether the opcode treats it as a
// register.
func (i Instruction) operandString(regs *Registers, n int) string {
	if isRegisterOperand(i.Op, n) {
		return regs.Name(int(i.Inputs[n]))
	}
	return strconv.FormatInt(i.Inputs[n], 10)
}

// isRegisterOperand reports whether operand slot n of op is a register
// reference rather than an immediate value.
func isRegisterOperand(op OpCode, n int) bool {
	switch op {
	case Addr, Mulr, Banr, Borr, Gtrr, Eqrr:
		return true
	case Setr:
		return n == 0
	case Addi, Muli, Bani, Bori, Gtri, Eqri:
		return n == 0
	case Gtir, Eqir:
		return n == 1
	default:
		// Seti
		return false
	}
}

// ParseInstruction decodes a single non-directive program line, e.g.
// "addr 0 1 2", into an Instruction. Whitespace-delimited, exactly four
// fields: opcode name followed by three integers.
func ParseInstruction(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Instruction{}, errors.Wrapf(ErrBadInstruction, "want 4 fields, got %d: %q", len(fields), line)
	}

	op, ok := DecodeOpCode(fields[0])
	if !ok {
		return Instruction{}, errors.Wrapf(ErrBadInstruction, "unknown opcode %q", fields[0])
	}

	a, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Instruction{}, errors.Wrapf(ErrBadInstruction, "bad operand a %q", fields[1])
	}
	b, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Instruction{}, errors.Wrapf(ErrBadInstruction, "bad operand b %q", fields[2])
	}
	o, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return Instruction{}, errors.Wrapf(ErrBadInstruction, "bad operand out %q", fields[3])
	}

	return Instruction{Op: op, Inputs: [2]int64{a, b}, Output: o}, nil
}

// parseIPDirective recognizes a "#ip N" directive line, returning the
// bound register index and true, or false if line is not a directive.
func parseIPDirective(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "#ip" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
