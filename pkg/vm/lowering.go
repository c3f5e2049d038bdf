package vm

import (
	"fmt"
	"strconv"

	"github.com/hack-toolchain/n2t/pkg/asm"
)

// ----------------------------------------------------------------------------
// Vm Lowerer

// The Lowerer takes a 'vm.Module' and produces its 'asm.Program' counterpart.
//
// Every VM operation maps to a fixed asm template parametrized on the operation's own
// fields (segment, offset, function name, ...). Label and comparison operations need
// globally unique Asm labels, so the Lowerer keeps a running counter scoped to the module
// being lowered (re-using the same counter across two modules would still be harmless,
// but restarting it per module keeps generated labels shorter and easier to read).
type Lowerer struct {
	module  Module
	name    string // Name of the module/class being lowered, used for 'static' addressing
	current string // Name of the function currently being lowered, used to scope labels
	counter int     // Running counter to keep generated labels unique within this module
}

// Initializes and returns to the caller a brand new 'Lowerer' struct.
// Requires 'name' to be the module/class this 'Module' was compiled from (VM 'static'
// variables are addressed as '{name}.{index}', so every module needs to know its own).
func NewLowerer(m Module, name string) Lowerer {
	return Lowerer{module: m, name: name}
}

// Triggers the lowering process, converting every VM operation into the equivalent
// sequence of Asm statements and concatenating them in program order.
func (l *Lowerer) Lower() (asm.Program, error) {
	program := asm.Program{}

	for _, operation := range l.module {
		var generated []asm.Instruction
		var err error

		switch tOperation := operation.(type) {
		case MemoryOp:
			generated, err = l.HandleMemoryOp(tOperation)
		case ArithmeticOp:
			generated, err = l.HandleArithmeticOp(tOperation)
		case LabelDecl:
			generated, err = l.HandleLabelDecl(tOperation)
		case GotoOp:
			generated, err = l.HandleGotoOp(tOperation)
		case FuncDecl:
			generated, err = l.HandleFuncDecl(tOperation)
		case ReturnOp:
			generated, err = l.HandleReturnOp(tOperation)
		case FuncCallOp:
			generated, err = l.HandleFuncCallOp(tOperation)
		default:
			err = fmt.Errorf("unrecognized operation '%T'", operation)
		}

		if err != nil {
			return nil, err
		}
		program = append(program, generated...)
	}

	return program, nil
}

// Generates a new globally unique label of the form '{module}.{prefix}.{n}', 'n' being
// a monotonically increasing counter scoped to the Lowerer instance.
func (l *Lowerer) label(prefix string) string {
	l.counter++
	return fmt.Sprintf("%s.%s.%d", l.name, prefix, l.counter)
}

// ----------------------------------------------------------------------------
// Shared instruction sequences

// Stores the current value of the D register on top of the stack and bumps SP.
var pushD = []asm.Instruction{
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "A", Comp: "M"},
	asm.CInstruction{Dest: "M", Comp: "D"},
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "M", Comp: "M+1"},
}

// Pops the stack's top into the D register, decrementing SP in the process.
var popToD = []asm.Instruction{
	asm.AInstruction{Location: "SP"},
	asm.CInstruction{Dest: "AM", Comp: "M-1"},
	asm.CInstruction{Dest: "D", Comp: "M"},
}

// Segments backed by a pointer register plus a variable offset ('*(base + offset)').
var indirectSegmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// ----------------------------------------------------------------------------
// Memory Op

func (l *Lowerer) HandleMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Constant:
		if op.Operation != Push {
			return nil, fmt.Errorf("cannot 'pop' into the 'constant' segment")
		}
		program := []asm.Instruction{
			asm.AInstruction{Location: strconv.Itoa(int(op.Offset))},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}
		return append(program, pushD...), nil

	case Local, Argument, This, That:
		base := indirectSegmentBase[op.Segment]
		resolveAddr := []asm.Instruction{
			asm.AInstruction{Location: strconv.Itoa(int(op.Offset))},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: base},
			asm.CInstruction{Dest: "D", Comp: "D+M"},
		}

		if op.Operation == Push {
			program := append(resolveAddr, asm.CInstruction{Dest: "A", Comp: "D"}, asm.CInstruction{Dest: "D", Comp: "M"})
			return append(program, pushD...), nil
		}

		// Pop: stash the resolved address in R13 before popping, since popping clobbers D.
		program := append(resolveAddr, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"})
		program = append(program, popToD...)
		program = append(program, asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
		return program, nil

	case Temp:
		if op.Offset > 7 {
			return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
		}
		addr := strconv.Itoa(5 + int(op.Offset))
		if op.Operation == Push {
			program := []asm.Instruction{asm.AInstruction{Location: addr}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(program, pushD...), nil
		}
		program := append([]asm.Instruction{}, popToD...)
		return append(program, asm.AInstruction{Location: addr}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Pointer:
		if op.Offset > 1 {
			return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
		}
		reg := "THIS"
		if op.Offset == 1 {
			reg = "THAT"
		}
		// Pointer push/pop addresses THIS/THAT directly (their own value), unlike 'this'/'that'
		// which dereference them - this is the one segment where the register IS the location.
		if op.Operation == Push {
			program := []asm.Instruction{asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(program, pushD...), nil
		}
		program := append([]asm.Instruction{}, popToD...)
		return append(program, asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"}), nil

	case Static:
		label := fmt.Sprintf("%s.%d", l.name, op.Offset)
		if op.Operation == Push {
			program := []asm.Instruction{asm.AInstruction{Location: label}, asm.CInstruction{Dest: "D", Comp: "M"}}
			return append(program, pushD...), nil
		}
		program := append([]asm.Instruction{}, popToD...)
		return append(program, asm.AInstruction{Location: label}, asm.CInstruction{Dest: "M", Comp: "D"}), nil
	}

	return nil, fmt.Errorf("unrecognized segment '%s'", op.Segment)
}

// ----------------------------------------------------------------------------
// Arithmetic Op

func (l *Lowerer) HandleArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	switch op.Operation {
	case Neg:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "-M"},
		}, nil
	case Not:
		return []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"},
			asm.CInstruction{Dest: "M", Comp: "!M"},
		}, nil

	case Add, Sub, And, Or:
		// Pops the top operand into D, points A at the operand beneath it (without touching
		// SP again) and combines the two in place - one fewer stack round-trip than pop+pop+push.
		program := []asm.Instruction{
			asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"}, asm.CInstruction{Dest: "A", Comp: "A-1"},
		}
		switch op.Operation {
		case Add:
			program = append(program, asm.CInstruction{Dest: "M", Comp: "D+M"})
		case Sub:
			program = append(program, asm.CInstruction{Dest: "M", Comp: "M-D"})
		case And:
			program = append(program, asm.CInstruction{Dest: "M", Comp: "D&M"})
		case Or:
			program = append(program, asm.CInstruction{Dest: "M", Comp: "D|M"})
		}
		return program, nil

	case Eq, Gt, Lt:
		jump := map[ArithOpType]string{Eq: "JEQ", Gt: "JGT", Lt: "JLT"}[op.Operation]
		return l.comparison(jump), nil
	}

	return nil, fmt.Errorf("unrecognized arithmetic operation '%s'", op.Operation)
}

// Produces the shared comparison template, parametrized only on the jump mnemonic used
// to recognize the 'true' case ('JEQ', 'JGT' or 'JLT'); pushes -1 (true) or 0 (false).
func (l *Lowerer) comparison(jump string) []asm.Instruction {
	isTrue, done := l.label("cmp_true"), l.label("cmp_done")

	return []asm.Instruction{
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "AM", Comp: "M-1"},
		asm.CInstruction{Dest: "D", Comp: "M"}, asm.CInstruction{Dest: "A", Comp: "A-1"},
		asm.CInstruction{Dest: "D", Comp: "M-D"},
		asm.AInstruction{Location: isTrue}, asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: done}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: isTrue},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "A", Comp: "M-1"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: done},
	}
}

// ----------------------------------------------------------------------------
// Control flow Op(s)

func (l *Lowerer) HandleLabelDecl(op LabelDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty label declaration")
	}
	return []asm.Instruction{asm.LabelDecl{Name: l.scopedLabel(op.Name)}}, nil
}

func (l *Lowerer) HandleGotoOp(op GotoOp) ([]asm.Instruction, error) {
	if op.Label == "" {
		return nil, fmt.Errorf("unable to lower a jump to an empty label")
	}

	target := l.scopedLabel(op.Label)
	if op.Jump == Unconditional {
		return []asm.Instruction{
			asm.AInstruction{Location: target}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		}, nil
	}

	program := append([]asm.Instruction{}, popToD...)
	return append(program, asm.AInstruction{Location: target}, asm.CInstruction{Comp: "D", Jump: "JNE"}), nil
}

// Labels are only unique within the function that declares them, so every reference is
// mangled with the name of the function currently being lowered (falls back to the bare
// name before any 'function' declaration has been seen, e.g. top-level bootstrap code).
func (l *Lowerer) scopedLabel(name string) string {
	if l.current == "" {
		return name
	}
	return fmt.Sprintf("%s$%s", l.current, name)
}

// ----------------------------------------------------------------------------
// Function Op(s)

func (l *Lowerer) HandleFuncDecl(op FuncDecl) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty function declaration")
	}
	l.current = op.Name

	program := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	for i := 0; i < int(op.NLocal); i++ {
		program = append(program, asm.AInstruction{Location: "0"}, asm.CInstruction{Dest: "D", Comp: "A"})
		program = append(program, pushD...)
	}
	return program, nil
}

func (l *Lowerer) HandleReturnOp(op ReturnOp) ([]asm.Instruction, error) {
	pop := func(reg string) []asm.Instruction {
		return []asm.Instruction{
			asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "AM", Comp: "M-1"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "M", Comp: "D"},
		}
	}

	program := []asm.Instruction{
		// R13 = FRAME = LCL
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"}, asm.CInstruction{Dest: "M", Comp: "D"},
		// R14 = RET = *(FRAME - 5)
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "A", Comp: "D-A"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R14"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	// *ARG = pop()
	program = append(program, popToD...)
	program = append(program, asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "A", Comp: "M"}, asm.CInstruction{Dest: "M", Comp: "D"})
	// SP = ARG + 1
	program = append(program, asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "D", Comp: "M+1"})
	program = append(program, asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"})
	// Restore THAT, THIS, ARG, LCL from FRAME-1..FRAME-4 (R13 walks backwards one slot at a time)
	program = append(program, pop("THAT")...)
	program = append(program, pop("THIS")...)
	program = append(program, pop("ARG")...)
	program = append(program, pop("LCL")...)
	// goto RET
	program = append(program, asm.AInstruction{Location: "R14"}, asm.CInstruction{Comp: "M", Jump: "JMP"})

	return program, nil
}

func (l *Lowerer) HandleFuncCallOp(op FuncCallOp) ([]asm.Instruction, error) {
	if op.Name == "" {
		return nil, fmt.Errorf("unable to lower an empty function call")
	}

	returnLabel := l.label("ret")
	pushReg := func(reg string) []asm.Instruction {
		program := []asm.Instruction{asm.AInstruction{Location: reg}, asm.CInstruction{Dest: "D", Comp: "M"}}
		return append(program, pushD...)
	}

	program := []asm.Instruction{asm.AInstruction{Location: returnLabel}, asm.CInstruction{Dest: "D", Comp: "A"}}
	program = append(program, pushD...)
	program = append(program, pushReg("LCL")...)
	program = append(program, pushReg("ARG")...)
	program = append(program, pushReg("THIS")...)
	program = append(program, pushReg("THAT")...)

	// ARG = SP - 5 - nArgs
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "5"}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: strconv.Itoa(int(op.NArgs))}, asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// LCL = SP
	program = append(program,
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"}, asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// goto callee, return label lands right after
	program = append(program,
		asm.AInstruction{Location: op.Name}, asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: returnLabel},
	)

	return program, nil
}

// Bootstrap code: initializes SP to 256 (the first usable RAM word past the registers)
// and calls 'Sys.init', the conventional entrypoint of a Jack program.
func Bootstrap() (asm.Program, error) {
	lowerer := NewLowerer(nil, "Bootstrap")
	call, err := lowerer.HandleFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})
	if err != nil {
		return nil, err
	}

	program := asm.Program{
		asm.AInstruction{Location: "256"}, asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"}, asm.CInstruction{Dest: "M", Comp: "D"},
	}
	return append(program, call...), nil
}
