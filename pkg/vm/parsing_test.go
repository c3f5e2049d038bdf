package vm_test

import (
	"strings"
	"testing"

	"github.com/hack-toolchain/n2t/pkg/vm"
)

func TestParseModule(t *testing.T) {
	source := `
// A tiny module exercising every statement kind once.
push constant 5
pop local 0
add
label LOOP
if-goto LOOP
function Main.run 2
call Math.multiply 2
return
`
	parser := vm.NewParser(strings.NewReader(source))
	module, err := parser.Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	expected := vm.Module{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 5},
		vm.MemoryOp{Operation: vm.Pop, Segment: vm.Local, Offset: 0},
		vm.ArithmeticOp{Operation: vm.Add},
		vm.LabelDecl{Name: "LOOP"},
		vm.GotoOp{Jump: vm.Conditional, Label: "LOOP"},
		vm.FuncDecl{Name: "Main.run", NLocal: 2},
		vm.FuncCallOp{Name: "Math.multiply", NArgs: 2},
		vm.ReturnOp{},
	}

	if len(module) != len(expected) {
		t.Fatalf("expected %d operations, got %d", len(expected), len(module))
	}
	for i := range expected {
		if module[i] != expected[i] {
			t.Errorf("operation %d: expected %+v, got %+v", i, expected[i], module[i])
		}
	}
}
