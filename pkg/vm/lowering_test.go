package vm_test

import (
	"testing"

	"github.com/hack-toolchain/n2t/pkg/asm"
	"github.com/hack-toolchain/n2t/pkg/vm"
)

func countInstances[T any](program []asm.Instruction) int {
	n := 0
	for _, inst := range program {
		if _, ok := inst.(T); ok {
			n++
		}
	}
	return n
}

func TestLowerMemoryOpConstant(t *testing.T) {
	module := vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 17}}
	lowerer := vm.NewLowerer(module, "Main")

	program, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok := program[0].(asm.AInstruction)
	if !ok || first.Location != "17" {
		t.Errorf("expected first instruction to load constant 17, got %+v", program[0])
	}
}

func TestLowerMemoryOpIndirectSegments(t *testing.T) {
	for _, segment := range []vm.SegmentType{vm.Local, vm.Argument, vm.This, vm.That} {
		t.Run(string(segment), func(t *testing.T) {
			module := vm.Module{
				vm.MemoryOp{Operation: vm.Push, Segment: segment, Offset: 2},
				vm.MemoryOp{Operation: vm.Pop, Segment: segment, Offset: 3},
			}
			lowerer := vm.NewLowerer(module, "Main")
			if _, err := lowerer.Lower(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLowerMemoryOpTempBounds(t *testing.T) {
	valid := vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 7}}
	if _, err := vm.NewLowerer(valid, "Main").Lower(); err != nil {
		t.Errorf("unexpected error for in-bounds temp offset: %v", err)
	}

	invalid := vm.Module{vm.MemoryOp{Operation: vm.Push, Segment: vm.Temp, Offset: 8}}
	if _, err := vm.NewLowerer(invalid, "Main").Lower(); err == nil {
		t.Error("expected an error for out-of-bounds temp offset")
	}
}

func TestLowerMemoryOpPointerBounds(t *testing.T) {
	valid := vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 1}}
	if _, err := vm.NewLowerer(valid, "Main").Lower(); err != nil {
		t.Errorf("unexpected error for in-bounds pointer offset: %v", err)
	}

	invalid := vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Pointer, Offset: 2}}
	if _, err := vm.NewLowerer(invalid, "Main").Lower(); err == nil {
		t.Error("expected an error for out-of-bounds pointer offset")
	}
}

func TestLowerMemoryOpConstantRejectsPop(t *testing.T) {
	module := vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Constant, Offset: 0}}
	if _, err := vm.NewLowerer(module, "Main").Lower(); err == nil {
		t.Error("expected an error when popping into the 'constant' segment")
	}
}

func TestLowerMemoryOpStaticUsesModuleName(t *testing.T) {
	module := vm.Module{vm.MemoryOp{Operation: vm.Pop, Segment: vm.Static, Offset: 3}}
	lowerer := vm.NewLowerer(module, "Foo")

	program, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, inst := range program {
		if a, ok := inst.(asm.AInstruction); ok && a.Location == "Foo.3" {
			found = true
		}
	}
	if !found {
		t.Error("expected a reference to static variable 'Foo.3'")
	}
}

func TestLowerArithmeticOps(t *testing.T) {
	for _, op := range []vm.ArithOpType{vm.Add, vm.Sub, vm.Neg, vm.And, vm.Or, vm.Not, vm.Eq, vm.Gt, vm.Lt} {
		t.Run(string(op), func(t *testing.T) {
			module := vm.Module{vm.ArithmeticOp{Operation: op}}
			if _, err := vm.NewLowerer(module, "Main").Lower(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLowerComparisonsGenerateUniqueLabels(t *testing.T) {
	module := vm.Module{
		vm.ArithmeticOp{Operation: vm.Eq},
		vm.ArithmeticOp{Operation: vm.Eq},
	}
	lowerer := vm.NewLowerer(module, "Main")

	program, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, inst := range program {
		if label, ok := inst.(asm.LabelDecl); ok {
			if seen[label.Name] {
				t.Errorf("label %q generated more than once across two 'eq' ops", label.Name)
			}
			seen[label.Name] = true
		}
	}
}

func TestLowerLabelAndGotoAreFunctionScoped(t *testing.T) {
	module := vm.Module{
		vm.FuncDecl{Name: "Main.loop", NLocal: 0},
		vm.LabelDecl{Name: "START"},
		vm.GotoOp{Jump: vm.Unconditional, Label: "START"},
	}
	lowerer := vm.NewLowerer(module, "Main")

	program, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var labelName, targetName string
	for _, inst := range program {
		switch tInst := inst.(type) {
		case asm.LabelDecl:
			if tInst.Name != "Main.loop" {
				labelName = tInst.Name
			}
		case asm.AInstruction:
			if tInst.Location != "START" && tInst.Location != "Main.loop" {
				targetName = tInst.Location
			}
		}
	}

	expected := "Main.loop$START"
	if labelName != expected {
		t.Errorf("expected scoped label %q, got %q", expected, labelName)
	}
	if targetName != expected {
		t.Errorf("expected scoped jump target %q, got %q", expected, targetName)
	}
}

func TestLowerFuncDeclUnrollsLocals(t *testing.T) {
	module := vm.Module{vm.FuncDecl{Name: "Main.run", NLocal: 3}}
	program, err := vm.NewLowerer(module, "Main").Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	labels := countInstances[asm.LabelDecl](program)
	if labels != 1 {
		t.Errorf("expected exactly one label declaration, got %d", labels)
	}
}

func TestLowerReturnRestoresFrame(t *testing.T) {
	module := vm.Module{vm.ReturnOp{}}
	program, err := vm.NewLowerer(module, "Main").Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last, ok := program[len(program)-1].(asm.CInstruction)
	if !ok || last.Jump != "JMP" {
		t.Errorf("expected return sequence to end with an unconditional jump, got %+v", program[len(program)-1])
	}
}

func TestLowerFuncCallGeneratesReturnLabel(t *testing.T) {
	module := vm.Module{vm.FuncCallOp{Name: "Math.multiply", NArgs: 2}}
	program, err := vm.NewLowerer(module, "Main").Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if labels := countInstances[asm.LabelDecl](program); labels != 1 {
		t.Errorf("expected exactly one generated return label, got %d", labels)
	}
}

func TestLowerRejectsEmptyNames(t *testing.T) {
	cases := []vm.Module{
		{vm.LabelDecl{Name: ""}},
		{vm.GotoOp{Jump: vm.Unconditional, Label: ""}},
		{vm.FuncDecl{Name: "", NLocal: 0}},
		{vm.FuncCallOp{Name: "", NArgs: 0}},
	}
	for _, module := range cases {
		if _, err := vm.NewLowerer(module, "Main").Lower(); err == nil {
			t.Errorf("expected an error lowering %+v", module)
		}
	}
}

func TestBootstrapInitializesStackPointerTo256(t *testing.T) {
	program, err := vm.Bootstrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first, ok := program[0].(asm.AInstruction)
	if !ok || first.Location != "256" {
		t.Errorf("expected bootstrap to load 256 first, got %+v", program[0])
	}

	found := false
	for _, inst := range program {
		if a, ok := inst.(asm.AInstruction); ok && a.Location == "Sys.init" {
			found = true
		}
	}
	if !found {
		t.Error("expected bootstrap to call 'Sys.init'")
	}
}
