package jack_test

import (
	"testing"

	"github.com/hack-toolchain/n2t/pkg/jack"
	"github.com/hack-toolchain/n2t/pkg/vm"
)

// TestHandleLiteralExprBooleans pins down the canonical Hack boolean encoding: 'false'
// is constant 0, 'true' is constant 0 bitwise-negated (all bits set, i.e. -1), so that a
// boolean literal stays bit-compatible with what eq/gt/lt and bitwise and/or/not produce.
func TestHandleLiteralExprBooleans(t *testing.T) {
	lowerer := jack.NewLowerer(jack.Program{})

	ops, err := lowerer.HandleLiteralExpr(jack.LiteralExpr{Type: jack.Bool, Value: "false"})
	if err != nil {
		t.Fatalf("unexpected error lowering 'false': %v", err)
	}
	expectFalse := []vm.Operation{vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0}}
	if len(ops) != len(expectFalse) || ops[0] != expectFalse[0] {
		t.Errorf("expected 'false' to lower to %v, got %v", expectFalse, ops)
	}

	ops, err = lowerer.HandleLiteralExpr(jack.LiteralExpr{Type: jack.Bool, Value: "true"})
	if err != nil {
		t.Fatalf("unexpected error lowering 'true': %v", err)
	}
	expectTrue := []vm.Operation{
		vm.MemoryOp{Operation: vm.Push, Segment: vm.Constant, Offset: 0},
		vm.ArithmeticOp{Operation: vm.Not},
	}
	if len(ops) != len(expectTrue) {
		t.Fatalf("expected 'true' to lower to %v, got %v", expectTrue, ops)
	}
	for i := range expectTrue {
		if ops[i] != expectTrue[i] {
			t.Errorf("expected 'true' to lower to %v, got %v", expectTrue, ops)
		}
	}
}
