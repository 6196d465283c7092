package vm

import "fmt"

// OpCode is one of the 16 elfcode instructions.
type OpCode int

const (
	Addr OpCode = iota
	Addi
	Mulr
	Muli
	Banr
	Bani
	Borr
	Bori
	Setr
	Seti
	Gtir
	Gtri
	Gtrr
	Eqir
	Eqri
	Eqrr
)

var opCodeNames = map[string]OpCode{
	"addr": Addr,
	"addi": Addi,
	"mulr": Mulr,
	"muli": Muli,
	"banr": Banr,
	"bani": Bani,
	"borr": Borr,
	"bori": Bori,
	"setr": Setr,
	"seti": Seti,
	"gtir": Gtir,
	"gtri": Gtri,
	"gtrr": Gtrr,
	"eqir": Eqir,
	"eqri": Eqri,
	"eqrr": Eqrr,
}

// DecodeOpCode parses one of the 16 lowercase opcode names.
func DecodeOpCode(input string) (OpCode, bool) {
	op, ok := opCodeNames[input]
	return op, ok
}

// String returns the opcode's canonical lowercase name.
func (op OpCode) String() string {
	switch op {
	case Addr:
		return "addr"
	case Addi:
		return "addi"
	case Mulr:
		return "mulr"
	case Muli:
		return "muli"
	case Banr:
		return "banr"
	case Bani:
		return "bani"
	case Borr:
		return "borr"
	case Bori:
		return "bori"
	case Setr:
		return "setr"
	case Seti:
		return "seti"
	case Gtir:
		return "gtir"
	case Gtri:
		return "gtri"
	case Gtrr:
		return "gtrr"
	case Eqir:
		return "eqir"
	case Eqri:
		return "eqri"
	case Eqrr:
		return "eqrr"
	default:
		return fmt.Sprintf("opcode(%d)", int(op))
	}
}

// Infix returns the human-readable infix operator used by HumanString.
func (op OpCode) Infix() string {
	switch op {
	case Addr, Addi:
		return "+"
	case Mulr, Muli:
		return "*"
	case Banr, Bani:
		return "&"
	case Borr, Bori:
		return "|"
	case Gtir, Gtri, Gtrr:
		return ">"
	case Eqir, Eqri, Eqrr:
		return "=="
	default:
		// Setr, Seti
		return "?"
	}
}

// Apply executes op against regs, writing the result into register o.
// a and b are either register indices or immediates depending on op.
func (op OpCode) Apply(regs *Registers, inputs [2]int64, o int64) error {
	a, b := inputs[0], inputs[1]

	var result int64
	switch op {
	case Addr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = ra + rb
	case Addi:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = ra + b
	case Mulr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = ra * rb
	case Muli:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = ra * b
	case Banr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = ra & rb
	case Bani:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = ra & b
	case Borr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = ra | rb
	case Bori:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = ra | b
	case Setr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = ra
	case Seti:
		result = a
	case Gtir:
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = boolToReg(a > rb)
	case Gtri:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = boolToReg(ra > b)
	case Gtrr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = boolToReg(ra > rb)
	case Eqir:
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = boolToReg(a == rb)
	case Eqri:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		result = boolToReg(ra == b)
	case Eqrr:
		ra, err := regs.reg(a)
		if err != nil {
			return err
		}
		rb, err := regs.reg(b)
		if err != nil {
			return err
		}
		result = boolToReg(ra == rb)
	default:
		return fmt.Errorf("unknown opcode: %d", int(op))
	}

	out, err := regs.regMut(o)
	if err != nil {
		return err
	}
	*out = result
	return nil
}

func boolToReg(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
