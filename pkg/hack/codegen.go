package hack

import (
	"fmt"
	"strconv"
)

// ----------------------------------------------------------------------------
// Translation tables

// This section contains the translation tables cornerstone of the codegen phase.
//
// This table provides a simple yet effective way to resolve the everything built-in and
// in the Hack specification. Notably we have a the following tables defined:
//	- 'BuiltInTable': Specifies how to translate BuiltIn labels in A instructions to their address
//  - 'CompTable': Specifies how to translate the 'Comp' opcode in C instructions
//  - 'DestTable': Specifies how to translate the 'Dest' opcode in C instructions
//  - 'JumpTable': Specifies how to translate the 'Jump' opcode in C instructions

var (
	BuiltInTable = map[string]uint16{
		// Virtual Machine specific aliases (see project 7)
		"SP": 0, "LCL": 1, "ARG": 2, "THIS": 3, "THAT": 4,
		// Named general purpose registers
		"R0": 0, "R1": 1, "R2": 2, "R3": 3, "R4": 4, "R5": 5,
		"R6": 6, "R7": 7, "R8": 8, "R9": 9, "R10": 10, "R11": 11,
		"R12": 12, "R13": 13, "R14": 14, "R15": 15,
		// Memory mapped I/O locations
		"SCREEN": 16384, "KBD": 24576,
	}

	CompTable = map[string]uint16{
		// - Constants and identities
		"0": 0b0101010, "1": 0b0111111, "-1": 0b0111010,
		"D": 0b0001100, "A": 0b0110000, "M": 0b1110000,
		// - Binary and numerical negations
		"!D": 0b0001101, "!A": 0b0110001, "!M": 0b1110001,
		"-D": 0b0001111, "-A": 0b0110011, "-M": 0b1110011,
		// - Increment and decrement operations
		"D+1": 0b0011111, "A+1": 0b0110111, "M+1": 0b1110111,
		"D-1": 0b0001110, "A-1": 0b0110010, "M-1": 0b1110010,
		// - Register with register operations
		"D+A": 0b0000010, "D+M": 0b1000010,
		"D-A": 0b0010011, "D-M": 0b1010011,
		"A-D": 0b0000111, "M-D": 0b1000111,
		// - Bitwise register with register operations
		"D&A": 0b0000000, "D&M": 0b1000000,
		"D|A": 0b0010101, "D|M": 0b1010101,
	}

	DestTable = map[string]uint16{
		"": 0b000, "M": 0b001, "D": 0b010, "A": 0b100,
		"MD": 0b011, "AM": 0b101, "AD": 0b110, "AMD": 0b111,
	}

	JumpTable = map[string]uint16{
		"": 0b000, "JGT": 0b001, "JEQ": 0b010, "JGE": 0b011,
		"JLT": 0b100, "JNE": 0b101, "JLE": 0b110, "JMP": 0b111,
	}
)

// ----------------------------------------------------------------------------
// Code Generator

// Takes some a set of 'hack.Instruction' and spits out their binary counterparts.
//
// In order to resolve user defined labels in A instructions, during initialization of
// of the Code Generator a Symbol Table should be provided.
type CodeGenerator struct {
	program    Program     // The set of instructions to convert in Hack binary format
	table      SymbolTable // Mapping to resolve user-defined labels to their underlying address
	nVarOffset uint16      // Internal offset to allocate memory for new variables
}

// Initializes and returns to the caller a brand new 'CodeGenerator' struct.
// Requires both a non-nil Program 'p' (what we want to translate) as well as
// a Symbol Table 'st' built with 'NewSymbolTable' (the zero value has no backing
// map) used to resolve user defined labels.
func NewCodeGenerator(p Program, st SymbolTable) CodeGenerator {
	return CodeGenerator{program: p, table: st}
}

// Translates each instruction in the 'Program' to the Hack binary format.
//
// Each instruction will pass through the following step: evaluation, validation and then conversion
// to its binary representation (stored inside a uint16) so that it can be further elaborated by the
// function caller (e.g. dumping .hack code to a file, runtime interpretation, ...).
func (cg *CodeGenerator) Generate() ([]string, error) {
	hack := make([]string, 0, len(cg.program))

	for _, instruction := range cg.program {
		var generated string = ""
		var err error = nil

		switch tInstruction := instruction.(type) {
		case AInstruction:
			generated, err = cg.GenerateAInst(tInstruction)
		case CInstruction:
			generated, err = cg.GenerateCInst(tInstruction)
		}

		if err != nil {
			return nil, err
		}
		hack = append(hack, generated)
	}

	return hack, nil
}

// addressResolver knows how to turn one flavor of A-instruction location (raw, label
// or built-in) into its RAM/ROM address. Keeping these as a table keyed by LocType,
// rather than inlining the three cases in a switch, means a fourth location kind would
// only ever need a new entry here.
type addressResolver func(cg *CodeGenerator, name string) (uint16, bool)

var addressResolvers = map[LocationType]addressResolver{
	Raw: func(_ *CodeGenerator, name string) (uint16, bool) {
		num, err := strconv.ParseInt(name, 10, 16)
		return uint16(num), err == nil
	},
	Label: func(cg *CodeGenerator, name string) (uint16, bool) {
		if address, found := cg.table.Get(name); found {
			return address, true
		}
		// First reference to this name: treat it as a freshly declared variable,
		// allocated from RAM word 16 onwards, and remember it for next time.
		address := 16 + cg.nVarOffset
		cg.table.Set(name, address)
		cg.nVarOffset++
		return address, true
	},
	BuiltIn: func(_ *CodeGenerator, name string) (uint16, bool) {
		address, found := BuiltInTable[name]
		return address, found
	},
}

// Specialized function to convert an A Instruction to the Hack format.
//
// As part of the conversion (for both built-in and user-defined labels) there's a lookup
// on their respective symbol tables in order to determine the 'real' location address.
// For location not resolved or resolved to an Out-of-Bound address an error is returned.
func (cg *CodeGenerator) GenerateAInst(inst AInstruction) (string, error) {
	resolve, known := addressResolvers[inst.LocType]
	if !known {
		return "", fmt.Errorf("unrecognized location type for '%s'", inst.LocName)
	}

	address, found := resolve(cg, inst.LocName)
	if !found {
		return "", fmt.Errorf("unable to resolve address for location '%s'", inst.LocName)
	}
	// An A instruction always has the first bit set to zero (the opcode bit) this also mean
	// that, since each instructions 16 bit there are only 15 bit to address the Hack computer
	// memory this in turn means that the an address of 2^15 or above is invalid and out of bound.
	if address >= MaxAddressableMemory {
		return "", fmt.Errorf("location '%s resolved to an address not allowed", inst.LocName)
	}
	// So here we just need to convert the address to its 16 bit binary representation
	return fmt.Sprintf("%016b", address), nil
}

// fieldEncoder looks a C-instruction field's textual mnemonic up in its opcode table and,
// on a hit, shifts it into position and folds it into 'command'. Encoding Comp/Dest/Jump
// through the same shape (rather than three near-identical if/else blocks) keeps the only
// real difference between them - which table and which shift amount - in one place.
type fieldEncoder struct {
	table    map[string]uint16
	shift    uint16
	name     string
	required bool
}

var cInstructionFields = []fieldEncoder{
	{table: CompTable, shift: 6, name: "comp", required: true},
	{table: DestTable, shift: 3, name: "dest"},
	{table: JumpTable, shift: 0, name: "jump"},
}

func (fe fieldEncoder) encode(mnemonic string, command uint16) (uint16, error) {
	opcode, found := fe.table[mnemonic]
	if !found {
		return 0, fmt.Errorf("unable to translate C instruction, unknown '%s' opcode '%s'", fe.name, mnemonic)
	}
	return command | (opcode << fe.shift), nil
}

// Specialized function to convert a C Instruction to the Hack format.
//
// The comp, dest and jump mnemonics are each looked up in their opcode table and folded
// into the instruction word. A missing comp or a mnemonic absent from its table is an error.
func (cg *CodeGenerator) GenerateCInst(inst CInstruction) (string, error) {
	command := uint16(0b111 << 13) // Puts the initial '111' opcode at the start

	mnemonics := map[string]string{"comp": inst.Comp, "dest": inst.Dest, "jump": inst.Jump}
	for _, field := range cInstructionFields {
		mnemonic := mnemonics[field.name]
		if field.required && mnemonic == "" {
			return "", fmt.Errorf("unable to translate C instruction, missing or invalid operation code")
		}

		encoded, err := field.encode(mnemonic, command)
		if err != nil {
			return "", err
		}
		command = encoded
	}

	return fmt.Sprintf("%016b", command), nil
}
