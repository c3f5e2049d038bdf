package vm

import (
	"fmt"
)

// ----------------------------------------------------------------------------
// Code Generator

// renderer is implemented by every Operation that knows how to print its own textual
// VM syntax. Dispatch in Generate is a single type assertion against this interface
// rather than an explicit switch, so adding a new Operation kind only means giving it
// a render method here - nothing in Generate itself has to change.
type renderer interface {
	render() (string, error)
}

// Takes a 'vm.Program' and spits out its source code counterparts.
//
// The translation can be done without any additional data structure but the program.
type CodeGenerator struct {
	program Program // The set of modules to convert in VM code format
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires that argument Program 'p' (what we want to translate) is non -nil.
func NewCodeGenerator(p Program) CodeGenerator {
	return CodeGenerator{program: p}
}

// Translates each instruction in the 'program' to the VM string format.
//
// Each instruction renders itself (see the renderer interface below); Generate's only
// job is to walk every module in program order and collect the results, surfacing the
// first rendering failure it encounters.
func (cg *CodeGenerator) Generate() (map[string][]string, error) {
	out := map[string][]string{}

	for modName, module := range cg.program {
		for _, operation := range module {
			r, ok := operation.(renderer)
			if !ok {
				return nil, fmt.Errorf("operation '%T' does not know how to render itself", operation)
			}

			line, err := r.render()
			if err != nil {
				return nil, err
			}
			out[modName] = append(out[modName], line)
		}
	}

	return out, nil
}

// ----------------------------------------------------------------------------
// Per-operation rendering

// memorySegmentBound caps the offsets accepted by segments that are backed by a fixed
// number of physical registers; segments absent from this table are unbounded (their
// offset is only ever limited by available RAM).
var memorySegmentBound = map[SegmentType]uint16{
	Pointer: 1,
	Temp:    7,
}

func (op MemoryOp) render() (string, error) {
	if bound, limited := memorySegmentBound[op.Segment]; limited && op.Offset > bound {
		return "", fmt.Errorf("invalid '%s' offset, got %d", op.Segment, op.Offset)
	}
	return fmt.Sprintf("%s %s %d", string(op.Operation), string(op.Segment), op.Offset), nil
}

func (op ArithmeticOp) render() (string, error) {
	return string(op.Operation), nil
}

func (op LabelDecl) render() (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty label declaration")
	}
	return fmt.Sprintf("label %s", op.Name), nil
}

func (op GotoOp) render() (string, error) {
	if op.Label == "" {
		return "", fmt.Errorf("unable to produce empty jump label")
	}
	return fmt.Sprintf("%s %s", string(op.Jump), op.Label), nil
}

func (op FuncDecl) render() (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty function declaration")
	}
	return fmt.Sprintf("function %s %d", op.Name, op.NLocal), nil
}

func (op ReturnOp) render() (string, error) {
	return "return", nil
}

func (op FuncCallOp) render() (string, error) {
	if op.Name == "" {
		return "", fmt.Errorf("unable to produce empty function call")
	}
	return fmt.Sprintf("call %s %d", op.Name, op.NArgs), nil
}
