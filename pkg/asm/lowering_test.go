package asm_test

import (
	"testing"

	"github.com/hack-toolchain/n2t/pkg/asm"
	"github.com/hack-toolchain/n2t/pkg/hack"
)

func TestLowerResolvesLocationKinds(t *testing.T) {
	program := asm.Program{
		asm.AInstruction{Location: "SP"},    // built-in
		asm.AInstruction{Location: "5"},     // raw literal
		asm.LabelDecl{Name: "LOOP"},         // label, bound to the next instruction's index (2)
		asm.AInstruction{Location: "LOOP"},  // reference back to the user label
		asm.CInstruction{Dest: "D", Comp: "D-1", Jump: "JGT"},
	}

	lowerer := asm.NewLowerer(program)
	hackProgram, table, err := lowerer.Lower()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(hackProgram) != 4 {
		t.Fatalf("expected 4 resolved instructions (label decl doesn't emit one), got %d", len(hackProgram))
	}

	if addr, found := table.Get("LOOP"); !found || addr != 2 {
		t.Errorf("expected label 'LOOP' bound to instruction index 2, got %d (found=%v)", addr, found)
	}

	first, ok := hackProgram[0].(hack.AInstruction)
	if !ok || first.LocType != hack.BuiltIn {
		t.Errorf("expected first instruction to resolve as BuiltIn, got %+v", hackProgram[0])
	}

	second, ok := hackProgram[1].(hack.AInstruction)
	if !ok || second.LocType != hack.Raw {
		t.Errorf("expected second instruction to resolve as Raw, got %+v", hackProgram[1])
	}

	third, ok := hackProgram[2].(hack.AInstruction)
	if !ok || third.LocType != hack.Label {
		t.Errorf("expected third instruction to resolve as Label, got %+v", hackProgram[2])
	}

	fourth, ok := hackProgram[3].(hack.CInstruction)
	if !ok || fourth.Dest != "D" || fourth.Jump != "JGT" {
		t.Errorf("expected combined dest+jump CInstruction to survive lowering, got %+v", hackProgram[3])
	}
}

func TestLowerRejectsEmptyProgram(t *testing.T) {
	lowerer := asm.NewLowerer(asm.Program{})
	if _, _, err := lowerer.Lower(); err == nil {
		t.Error("expected an error when lowering an empty program")
	}
}
