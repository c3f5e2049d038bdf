package main

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/teris-io/cli"
	"github.com/hack-toolchain/n2t/internal/diag"
	"github.com/hack-toolchain/n2t/pkg/asm"
	"github.com/hack-toolchain/n2t/pkg/vm"
)

var logger = diag.NewLogger()

var Description = strings.ReplaceAll(`
The VM Translator translates programs (composed of multiple modules/files) written in 
the VM language into Hack assembly code that can be further elaborated. The VM language
is a higher-level (bytecode'like) language tailored for use with the Hack computer arch.
`, "\n", " ")

var VmTranslator = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .vm file
	WithArg(cli.NewArg("inputs", "The bytecode (.vm) file to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "The compiled binary output (.asm)").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("bootstrap", "Includes bootstrap code in the final .asm file").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 || options["output"] == "" {
		return diag.Fail(logger, "cli", "", fmt.Errorf("not enough arguments provided, use --help"))
	}

	output, err := os.Create(options["output"])
	if err != nil {
		return diag.Fail(logger, "io", options["output"], err)
	}
	defer output.Close()

	// Every .vm file is its own translation unit (module/class) and gets lowered
	// independently (each with its own name, needed to address its 'static' segment),
	// the resulting Asm instructions are then concatenated in a single program.
	asmProgram := asm.Program{}

	// For every file provided by the user we do the following things
	for _, input := range args {
		content, err := os.ReadFile(input)
		if err != nil {
			return diag.Fail(logger, "io", input, err)
		}

		// Instantiate a parser for the Vm program
		parser := vm.NewParser(bytes.NewReader(content))
		// Parses the input file content and extract an AST (as a 'vm.Module') from it.
		module, err := parser.Parse()
		if err != nil {
			return diag.Fail(logger, "parsing", input, err)
		}

		name := strings.TrimSuffix(path.Base(input), path.Ext(input))
		lowerer := vm.NewLowerer(module, name)
		lowered, err := lowerer.Lower()
		if err != nil {
			return diag.Fail(logger, "lowering", input, err)
		}
		asmProgram = append(asmProgram, lowered...)
	}

	// When the user opts in to include the 'bootstrap' code as the first instructions of our
	// translated program, this code does the following things:
	// - Sets the Stack Pointer to its base location at memory location 256
	// - Jump to the Sys.init function that (defined by the one of the 'vm.Module')
	if _, enabled := options["bootstrap"]; enabled {
		bootstrap, err := vm.Bootstrap()
		if err != nil {
			return diag.Fail(logger, "lowering", "<bootstrap>", err)
		}
		asmProgram = append(bootstrap, asmProgram...)
	}

	// Now, instantiates a code generator for the Asm (compiled) program
	codegen := asm.NewCodeGenerator(asmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		return diag.Fail(logger, "codegen", options["output"], err)
	}

	for _, comp := range compiled {
		line := fmt.Sprintf("%s\n", comp)
		output.Write([]byte(line))
	}

	return 0
}

func main() { os.Exit(VmTranslator.Run(os.Args, os.Stdout)) }
