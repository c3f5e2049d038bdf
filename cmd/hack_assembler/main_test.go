package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHackAssembler(t *testing.T) {
	test := func(t *testing.T, source string, expected string) {
		dir := t.TempDir()
		input := filepath.Join(dir, "program.asm")
		output := filepath.Join(dir, "program.hack")

		if err := os.WriteFile(input, []byte(source), 0644); err != nil {
			t.Fatalf("error writing input fixture: %v", err)
		}

		status := Handler([]string{input, output}, nil)
		if status != 0 {
			t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
		}

		compiled, err := os.ReadFile(output)
		if err != nil {
			t.Fatalf("error reading output file: %v", err)
		}
		if string(compiled) != expected {
			t.Fatalf("output does not match, expected:\n%s\ngot:\n%s", expected, compiled)
		}
	}

	t.Run("PureNumericProgram", func(t *testing.T) {
		test(t, "@5\nD=A\n", "0000000000000101\n1110110000010000\n")
	})

	t.Run("LabelsAndVariables", func(t *testing.T) {
		source := "@i\nM=1\n(LOOP)\n@LOOP\n0;JMP\n"
		expected := "0000000000010000\n1110111111001000\n0000000000000010\n1110101010000111\n"
		test(t, source, expected)
	})

	t.Run("CommentsAndBlankLinesIgnored", func(t *testing.T) {
		source := "// comment only line\n@5\n  \nD=A // inline comment\n"
		test(t, source, "0000000000000101\n1110110000010000\n")
	})

	t.Run("UnknownMnemonicFails", func(t *testing.T) {
		dir := t.TempDir()
		input := filepath.Join(dir, "bad.asm")
		output := filepath.Join(dir, "bad.hack")
		os.WriteFile(input, []byte("D=Q\n"), 0644)

		status := Handler([]string{input, output}, nil)
		if status == 0 {
			t.Fatal("expected a non-zero exit status for a malformed comp mnemonic")
		}
	})
}
