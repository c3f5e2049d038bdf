package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, source string, bootstrap bool) []string {
	dir := t.TempDir()
	input := filepath.Join(dir, "program.vm")
	output := filepath.Join(dir, "program.asm")

	if err := os.WriteFile(input, []byte(source), 0644); err != nil {
		t.Fatalf("error writing input fixture: %v", err)
	}

	options := map[string]string{"output": output}
	if bootstrap {
		options["bootstrap"] = "true"
	}

	status := Handler([]string{input}, options)
	if status != 0 {
		t.Fatalf("unexpected exit status code: expected 0 got: %d", status)
	}

	compiled, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("error reading output file: %v", err)
	}
	return strings.Split(strings.TrimRight(string(compiled), "\n"), "\n")
}

func TestVMTranslatorArithmetic(t *testing.T) {
	lines := run(t, "push constant 7\npush constant 8\nadd\n", false)

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "@7") || !strings.Contains(joined, "@8") {
		t.Fatalf("expected pushed constants to appear as literal addresses, got:\n%s", joined)
	}
	if !strings.Contains(joined, "M=D+M") {
		t.Fatalf("expected the 'add' arithmetic template to emit a '+' computation, got:\n%s", joined)
	}
}

func TestVMTranslatorComparisonGeneratesUniqueLabels(t *testing.T) {
	lines := run(t, "push constant 1\npush constant 2\neq\npush constant 1\npush constant 2\ngt\n", false)

	joined := strings.Join(lines, "\n")
	first := strings.Index(joined, "program.cmp_true.1")
	second := strings.Index(joined, "program.cmp_true.3")
	if first == -1 || second == -1 || first == second {
		t.Fatalf("expected two distinct, monotonically-numbered comparison labels, got:\n%s", joined)
	}
}

func TestVMTranslatorBootstrapInitializesStackAndCallsSysInit(t *testing.T) {
	lines := run(t, "function Sys.init 0\npush constant 42\nreturn\n", true)

	if len(lines) < 2 || lines[0] != "@256" || lines[1] != "D=A" {
		t.Fatalf("expected bootstrap to start with '@256'/'D=A', got first lines: %v", lines[:2])
	}

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "@Sys.init") {
		t.Fatalf("expected bootstrap to jump into 'Sys.init', got:\n%s", joined)
	}
}

func TestVMTranslatorFunctionCallReturnProtocol(t *testing.T) {
	source := "function Main.main 0\npush constant 1\ncall Main.helper 1\nreturn\n" +
		"function Main.helper 1\npush argument 0\nreturn\n"
	lines := run(t, source, false)

	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "(Main.main)") || !strings.Contains(joined, "(Main.helper)") {
		t.Fatalf("expected function labels to be emitted verbatim, got:\n%s", joined)
	}
	if !strings.Contains(joined, "@Main.helper") {
		t.Fatalf("expected the call site to jump to the callee label, got:\n%s", joined)
	}
}
