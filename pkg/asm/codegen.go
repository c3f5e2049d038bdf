package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hack-toolchain/n2t/pkg/hack"
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes a sequence of 'asm.Statement' and renders each one back to its textual
// assembly syntax (the mirror image of the parsing phase).
type CodeGenerator struct {
	program []Statement
}

func NewCodeGenerator(p []Statement) CodeGenerator {
	return CodeGenerator{program: p}
}

// Renders every statement in the program, failing fast on the first statement
// that cannot be rendered (an empty label, a C instruction missing its comp, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	asmLines := make([]string, 0, len(cg.program))

	for _, statement := range cg.program {
		line, err := cg.generateOne(statement)
		if err != nil {
			return nil, err
		}
		asmLines = append(asmLines, line)
	}

	return asmLines, nil
}

// generateOne is the single place that knows which concrete Statement maps to
// which rendering routine; everything downstream only has to handle its own kind.
func (cg *CodeGenerator) generateOne(statement Statement) (string, error) {
	switch tStatement := statement.(type) {
	case AInstruction:
		return cg.GenerateAInst(tStatement)
	case CInstruction:
		return cg.GenerateCInst(tStatement)
	case LabelDecl:
		return cg.GenerateLabelDecl(tStatement)
	default:
		return "", fmt.Errorf("unrecognized statement '%T'", statement)
	}
}

// GenerateAInst renders an A instruction, which is always just '@' followed
// by whatever raw token, label or built-in name the parser captured. A numeric
// location of 2^15 or above is rejected, since only 15 bits can address memory.
func (CodeGenerator) GenerateAInst(stmt AInstruction) (string, error) {
	if stmt.Location == "" {
		return "", fmt.Errorf("unable to produce empty location reference")
	}
	if address, err := strconv.ParseUint(stmt.Location, 10, 64); err == nil && address >= uint64(hack.MaxAddressableMemory) {
		return "", fmt.Errorf("raw address '%s' is out of bound", stmt.Location)
	}
	return "@" + stmt.Location, nil
}

// cField is one optional piece of a C instruction's textual form: a prefix or
// suffix written around its mnemonic only when the mnemonic is non-empty.
// Looping over comp/dest/jump through this shape, rather than branching over
// an explicit three-way switch on (dest, jump) presence, keeps the layout of
// all three fields in one place.
type cField struct {
	mnemonic string
	before   string // written immediately before the mnemonic, e.g. ";" + "JGT"
	after    string // written immediately after the mnemonic, e.g. "D" + "="
}

func (cg *CodeGenerator) GenerateCInst(stmt CInstruction) (string, error) {
	if stmt.Comp == "" {
		return "", fmt.Errorf("expected 'comp' directive in C Instruction")
	}
	if stmt.Dest == "" && stmt.Jump == "" {
		return "", fmt.Errorf("expected either 'dest' or 'jump' directive in C Instruction")
	}

	fields := []cField{
		{mnemonic: stmt.Dest, after: "="},
		{mnemonic: stmt.Comp},
		{mnemonic: stmt.Jump, before: ";"},
	}

	var out strings.Builder
	for _, f := range fields {
		if f.mnemonic == "" {
			continue
		}
		if f.after != "" {
			out.WriteString(f.mnemonic)
			out.WriteString(f.after)
			continue
		}
		out.WriteString(f.before)
		out.WriteString(f.mnemonic)
	}

	return out.String(), nil
}

// GenerateLabelDecl renders a label declaration, rejecting any attempt to shadow
// one of the Hack architecture's reserved built-in symbols.
func (cg *CodeGenerator) GenerateLabelDecl(stmt LabelDecl) (string, error) {
	if stmt.Name == "" {
		return "", fmt.Errorf("unable to produce empty label declaration")
	}
	if _, found := hack.BuiltInTable[stmt.Name]; found {
		return "", fmt.Errorf("unable to override built-in label '%s'", stmt.Name)
	}
	return fmt.Sprintf("(%s)", stmt.Name), nil
}
