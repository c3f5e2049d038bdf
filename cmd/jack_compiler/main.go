package main

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-toolchain/n2t/internal/diag"
	"github.com/hack-toolchain/n2t/pkg/jack"
	"github.com/hack-toolchain/n2t/pkg/utils"
	"github.com/hack-toolchain/n2t/pkg/vm"

	"github.com/teris-io/cli"
)

var logger = diag.NewLogger()

// oslib holds the bundled standard library modules (Math, String, Array, Output, Screen,
// Keyboard, Memory and Sys), already lowered to Vm source. They ship with the compiler so a
// program that only declares its own classes can still be turned into a runnable executable
// without having to vendor the OS sources into every project.
//
//go:embed oslib/*.vm
var oslib embed.FS

var Description = strings.ReplaceAll(`
The Jack Compiler compiles programs (composed of multiple classes/files) written in
the Jack language into VM modules that can be further elaborated. The Jack language
is a higher-level OOP language tailored for use with the Hack computer architecture.
`, "\n", " ")

var JackCompiler = cli.New(Description).
	// 'AsOptional()' allows to have more than one input .jack file
	WithArg(cli.NewArg("inputs", "The source (.jack) files to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("stdlib", "Uses the built-in ABI of the standard library for lowering").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("typecheck", "Does a full type check of source code before emitting any output").
		WithType(cli.TypeBool)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		return diag.Fail(logger, "cli", "", fmt.Errorf("not enough arguments provided, use --help"))
	}

	// The first is the aggregation of all the Translation Units (TUs) found during the input walk (just the paths)
	// The second is the container of the full program (a basic collection of parsed modules that can be explored)
	// ! While the Jack language spec follows the same semantic as Java every file is a class and every class is a
	// ! jack.Class, that said in future or other language the same could not apply. By TU we identify the source
	// ! that needs to be parsed, by module we identify the biggest entity extractable from said file. In jack this
	// ! a class but for other language it may be a module (Go), a namespace (C#) or just some basic functions (C).
	TUs, program := []string{}, jack.Program{}

	for _, input := range args {
		filepath.Walk(input, func(path string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || filepath.Ext(path) != ".jack" {
				return nil // We recurse on dirs and ignore other filetypes
			}

			TUs = append(TUs, path)
			return nil
		})
	}

	for _, tu := range TUs {
		content, err := os.ReadFile(tu)
		if err != nil {
			return diag.Fail(logger, "io", tu, err)
		}

		// Instantiate a parser for the Jack program
		parser := jack.NewParser(bytes.NewReader(content))
		// Removes root directory and file extension to use as module name
		filename, extension := path.Base(tu), path.Ext(tu)
		// Parses the input file content and extract an AST (as a 'jack.Class') from it.
		program[strings.TrimSuffix(filename, extension)], err = parser.Parse()
		if err != nil {
			return diag.Fail(logger, "parsing", tu, err)
		}
	}

	// Adds to the jack.Program the stdlib ABI, this will help resolve stdlib functions w/o adding
	// them to the final executable (they are ignored after the codegen phase). This will enable
	// in future to compile project w/o defining the stdlib and assuming it can be 'linked' if needed.
	if _, enabled := options["stdlib"]; enabled {
		for name, abi := range jack.StandardLibraryABI {
			def := jack.Class{Name: name, Subroutines: utils.OrderedMap[string, jack.Subroutine]{}}
			for fName, subroutine := range abi {
				def.Subroutines.Set(fName, subroutine)
			}
			program[name] = def
		}
	}

	if _, enabled := options["typecheck"]; enabled {
		checker := jack.NewTypeChecker(program)
		if _, err := checker.Check(); err != nil {
			return diag.Fail(logger, "typecheck", "", err)
		}
	}

	// Instantiate a lowerer to convert the program from Jack to Vm
	lowerer := jack.NewLowerer(program)
	// Lowers the jack.Program to an in-memory/IR representation of its Vm counterpart 'vm.Program'.
	vmProgram, err := lowerer.Lower()
	if err != nil {
		return diag.Fail(logger, "lowering", "", err)
	}

	// Now, instantiates a code generator for the Vm (compiled) program
	codegen := vm.NewCodeGenerator(vmProgram)
	// Iterates over each instruction and spits out the relative textual representation.
	compiled, err := codegen.Generate()
	if err != nil {
		return diag.Fail(logger, "codegen", "", err)
	}

	for _, tu := range TUs {
		// Removes root directory and file extension to use as module name
		filename, extension := path.Base(tu), path.Ext(tu)
		module, ok := compiled[strings.TrimSuffix(filename, extension)]
		if !ok {
			return diag.Fail(logger, "codegen", tu, fmt.Errorf("unable to compile module for class file"))
		}

		output, err := os.Create(fmt.Sprintf("%s.vm", strings.TrimSuffix(tu, extension)))
		if err != nil {
			return diag.Fail(logger, "io", tu, err)
		}
		defer output.Close()

		for _, ops := range module {
			line := fmt.Sprintf("%s\n", ops)
			output.Write([]byte(line))
		}
	}

	// When the user opts in to the standard library ABI and at least one of the inputs is a
	// directory (as opposed to a handful of loose .jack files), also drop the bundled OS
	// modules next to the compiled output so the result is directly runnable, without ever
	// clobbering a same-named module the user already provides of their own.
	if _, enabled := options["stdlib"]; enabled {
		for _, input := range args {
			info, err := os.Stat(input)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := copyStdlib(input); err != nil {
				return diag.Fail(logger, "io", input, err)
			}
		}
	}

	return 0
}

// copyStdlib writes the bundled OS .vm modules into dir, skipping any module the caller
// already supplied under the same name.
func copyStdlib(dir string) error {
	entries, err := oslib.ReadDir("oslib")
	if err != nil {
		return err
	}

	for _, entry := range entries {
		dest := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(dest); err == nil {
			continue // A module with this name is already present, never overwrite it.
		}

		content, err := oslib.ReadFile(path.Join("oslib", entry.Name()))
		if err != nil {
			return err
		}
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return err
		}
	}

	return nil
}

func main() { os.Exit(JackCompiler.Run(os.Args, os.Stdout)) }
